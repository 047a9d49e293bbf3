package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/songdeck/internal/catalog"
)

// ErrUnavailable wraps every failure to obtain a complete catalog.
var ErrUnavailable = errors.New("catalog unavailable")

// Loader fetches the full catalog.
type Loader interface {
	FetchSongs(ctx context.Context) ([]catalog.Song, error)
}

var (
	_ Loader = (*Client)(nil)
	_ Loader = (*FileLoader)(nil)
)

const (
	defaultUserAgent = "songdeck/0.1"
	// DefaultTimeout bounds a catalog request.
	DefaultTimeout = 10 * time.Second
)

// Client fetches the catalog as a JSON array from a single endpoint.
type Client struct {
	endpoint  *url.URL
	http      *http.Client
	userAgent string
}

// NewClient builds a Client for endpoint. A nil transport uses
// http.DefaultTransport; a non-positive timeout uses DefaultTimeout.
func NewClient(endpoint string, transport http.RoundTripper, timeout time.Duration) (*Client, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: u,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// Endpoint returns the catalog URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// FetchSongs retrieves and sanitizes the catalog. Any failure yields no
// songs and an error wrapping ErrUnavailable.
func (c *Client) FetchSongs(ctx context.Context) ([]catalog.Song, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var songs []catalog.Song
	if err := c.do(ctx, &songs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return Sanitize(songs), nil
}

func (c *Client) do(ctx context.Context, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("catalog %s returned status %d", c.endpoint.Redacted(), resp.StatusCode)
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: unexpected data after catalog")
	}
	return nil
}

func parseEndpoint(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("catalog url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("catalog url %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("catalog url %q: missing host", raw)
	}
	u.Fragment = ""
	return u, nil
}

package offline

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const (
	storageRoot = "caches"
	tempPrefix  = ".tmp-"
	// completeMarker is written once every precache entry is stored.
	completeMarker = ".complete"
)

// CacheStorage holds named cache buckets as directories on a billy
// filesystem.
type CacheStorage struct {
	mu sync.Mutex
	fs billy.Filesystem
}

// NewCacheStorage returns a CacheStorage rooted at fs.
func NewCacheStorage(fs billy.Filesystem) *CacheStorage {
	return &CacheStorage{fs: fs}
}

// Open returns the bucket called name, creating it when missing.
func (c *CacheStorage) Open(name string) (*Bucket, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("cache name is empty")
	}
	dir := c.fs.Join(storageRoot, url.PathEscape(name))

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache %q: %w", name, err)
	}
	return &Bucket{mu: &c.mu, fs: c.fs, dir: dir, name: name}, nil
}

// Has reports whether a bucket called name exists.
func (c *CacheStorage) Has(name string) (bool, error) {
	names, err := c.Keys()
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

// Keys returns every bucket name, sorted.
func (c *CacheStorage) Keys() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.fs.ReadDir(storageRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list caches: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name, err := url.PathUnescape(e.Name())
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Delete removes the bucket called name. It reports whether one existed.
func (c *CacheStorage) Delete(name string) (bool, error) {
	dir := c.fs.Join(storageRoot, url.PathEscape(name))

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.fs.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat cache %q: %w", name, err)
	}
	if err := util.RemoveAll(c.fs, dir); err != nil {
		return false, fmt.Errorf("delete cache %q: %w", name, err)
	}
	return true, nil
}

// Bucket stores request/response pairs keyed by request URL. Each entry is
// the URL on one line followed by the HTTP/1.1 encoded response.
type Bucket struct {
	mu   *sync.Mutex
	fs   billy.Filesystem
	dir  string
	name string
}

// Name returns the bucket name.
func (b *Bucket) Name() string { return b.name }

// Match returns the stored response for req. The caller owns the returned
// body.
func (b *Bucket) Match(req *http.Request) (*http.Response, bool, error) {
	b.mu.Lock()
	data, err := util.ReadFile(b.fs, b.entryPath(req))
	b.mu.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	br := bufio.NewReader(bytes.NewReader(data))
	if _, err := br.ReadString('\n'); err != nil {
		return nil, false, fmt.Errorf("read cache entry key: %w", err)
	}
	resp, err := http.ReadResponse(br, req)
	if err != nil {
		return nil, false, fmt.Errorf("parse cache entry: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, true, nil
}

// Put stores resp for req, replacing any previous entry. It consumes
// resp.Body.
func (b *Bucket) Put(req *http.Request, resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	stored := &http.Response{
		Status:        resp.Status,
		StatusCode:    resp.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        resp.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
	var buf bytes.Buffer
	buf.WriteString(req.URL.String())
	buf.WriteByte('\n')
	if err := stored.Write(&buf); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	tmp, err := util.TempFile(b.fs, b.dir, tempPrefix)
	if err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = b.fs.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = b.fs.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := b.fs.Rename(tmp.Name(), b.entryPath(req)); err != nil {
		_ = b.fs.Remove(tmp.Name())
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}

// URLs lists the request URLs stored in the bucket, sorted.
func (b *Bucket) URLs() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries, err := b.fs.ReadDir(b.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	var urls []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		data, err := util.ReadFile(b.fs, b.fs.Join(b.dir, e.Name()))
		if err != nil {
			continue
		}
		line, _, _ := bytes.Cut(data, []byte{'\n'})
		urls = append(urls, string(line))
	}
	slices.Sort(urls)
	return urls, nil
}

// MarkComplete records that the bucket holds a full install.
func (b *Bucket) MarkComplete() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := util.WriteFile(b.fs, b.fs.Join(b.dir, completeMarker), nil, 0o644); err != nil {
		return fmt.Errorf("mark cache complete: %w", err)
	}
	return nil
}

// Complete reports whether MarkComplete has been called on the bucket.
func (b *Bucket) Complete() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.fs.Stat(b.fs.Join(b.dir, completeMarker))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	}
	return false, fmt.Errorf("check cache marker: %w", err)
}

func (b *Bucket) entryPath(req *http.Request) string {
	sum := sha256.Sum256([]byte(req.URL.String()))
	return b.fs.Join(b.dir, hex.EncodeToString(sum[:]))
}

// BucketName derives a cache name from a version token and the precache
// manifest, so a redeploy with either changed lands in a new bucket.
func BucketName(prefix, version string, manifest []string) string {
	sum := sha256.Sum256([]byte(strings.Join(manifest, "\n")))
	return fmt.Sprintf("%s-%s-%s", prefix, version, hex.EncodeToString(sum[:4]))
}

package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseEndpoint_DefaultsAndValidates(t *testing.T) {
	u, err := parseEndpoint("songs.example/exec?x=1#frag")
	if err != nil {
		t.Fatalf("parseEndpoint returned error: %v", err)
	}
	if u.Scheme != "https" {
		t.Fatalf("scheme = %q, want https", u.Scheme)
	}
	if u.RawQuery != "x=1" || u.Fragment != "" {
		t.Fatalf("url = %q, want query kept and fragment dropped", u.String())
	}

	for _, raw := range []string{"", "   ", "ftp://songs.example/list", "http://"} {
		if _, err := parseEndpoint(raw); err == nil {
			t.Fatalf("parseEndpoint(%q) returned nil error, want error", raw)
		}
	}
}

func TestClient_FetchSongsSendsHeadersAndSanitizes(t *testing.T) {
	t.Parallel()

	var gotAccept, gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"title":"Song01","band":"Band1","language":"English","url":"https://example.com/1","notes":"<b>Live</b> &amp; loud<script>alert(1)</script>"},
			{"title":"Song02","band":"Band2","language":"Spanish","url":"https://example.com/2"}
		]`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL+"/exec", nil, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	songs, err := c.FetchSongs(context.Background())
	if err != nil {
		t.Fatalf("FetchSongs returned error: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("len(songs) = %d, want 2", len(songs))
	}
	if songs[0].Notes != "Live & loud" {
		t.Fatalf("notes = %q, want %q", songs[0].Notes, "Live & loud")
	}
	if songs[1].Language != "Spanish" || songs[1].URL != "https://example.com/2" {
		t.Fatalf("song = %#v, want decoded fields", songs[1])
	}
	if gotAccept != "application/json" {
		t.Fatalf("Accept = %q, want application/json", gotAccept)
	}
	if !strings.HasPrefix(gotUserAgent, "songdeck/") {
		t.Fatalf("User-Agent = %q, want songdeck/*", gotUserAgent)
	}
}

func TestClient_FailuresWrapUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/broken":
			_, _ = w.Write([]byte(`[{"title":"Song01"},`))
		case "/trailing":
			_, _ = w.Write([]byte(`[{"title":"Song01","band":"Band1","url":"https://example.com/1"}] <html>oops`))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`[]`))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	cases := []struct {
		path    string
		timeout time.Duration
		want    string
	}{
		{path: "/broken", timeout: time.Second, want: "decode response"},
		{path: "/trailing", timeout: time.Second, want: "unexpected data after catalog"},
		{path: "/missing", timeout: time.Second, want: "returned status 500"},
		{path: "/slow", timeout: 20 * time.Millisecond, want: "execute request"},
	}
	for _, tc := range cases {
		c, err := NewClient(server.URL+tc.path, nil, tc.timeout)
		if err != nil {
			t.Fatalf("NewClient returned error: %v", err)
		}
		songs, err := c.FetchSongs(context.Background())
		if songs != nil {
			t.Fatalf("%s: songs = %#v, want nil", tc.path, songs)
		}
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("%s: error = %v, want ErrUnavailable", tc.path, err)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error = %v, want %q", tc.path, err, tc.want)
		}
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_UsesInjectedTransport(t *testing.T) {
	var called bool
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("offline")
	})
	c, err := NewClient("https://songs.example/exec", transport, 0)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if c.Endpoint() != "https://songs.example/exec" {
		t.Fatalf("Endpoint = %q, want https://songs.example/exec", c.Endpoint())
	}
	if _, err := c.FetchSongs(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("FetchSongs error = %v, want ErrUnavailable", err)
	}
	if !called {
		t.Fatalf("injected transport was not used")
	}
}

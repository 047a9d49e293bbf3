package offline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrLifecycle is returned when a lifecycle step runs out of order.
var ErrLifecycle = errors.New("offline: invalid lifecycle transition")

// State is the lifecycle position of a Worker.
type State int

const (
	StateNew State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateServing
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateServing:
		return "serving"
	case StateRedundant:
		return "redundant"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const defaultConcurrency = 4

// Options configures a Worker.
type Options struct {
	Storage   *CacheStorage
	CacheName string
	// BaseURL resolves relative manifest entries.
	BaseURL  string
	Manifest []string
	// Next performs network requests. Defaults to http.DefaultTransport.
	Next        http.RoundTripper
	Concurrency int
	Logger      *zap.Logger
}

// Worker precaches a manifest into a versioned bucket, evicts older
// buckets on activation, and then answers GET requests
// stale-while-revalidate. It implements http.RoundTripper.
type Worker struct {
	storage     *CacheStorage
	name        string
	base        *url.URL
	manifest    []string
	next        http.RoundTripper
	concurrency int
	logger      *zap.Logger

	mu       sync.RWMutex
	state    State
	inflight sync.WaitGroup
}

// NewWorker validates opts and returns a Worker in StateNew.
func NewWorker(opts Options) (*Worker, error) {
	if opts.Storage == nil {
		return nil, errors.New("offline: storage is required")
	}
	if opts.CacheName == "" {
		return nil, errors.New("offline: cache name is required")
	}
	w := &Worker{
		storage:     opts.Storage,
		name:        opts.CacheName,
		manifest:    append([]string(nil), opts.Manifest...),
		next:        opts.Next,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}
	if opts.BaseURL != "" {
		base, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("offline: parse base url: %w", err)
		}
		w.base = base
	}
	if w.next == nil {
		w.next = http.DefaultTransport
	}
	if w.concurrency <= 0 {
		w.concurrency = defaultConcurrency
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	w.logger = w.logger.With(zap.String("cache", w.name))
	return w, nil
}

// CacheName returns the bucket this worker owns.
func (w *Worker) CacheName() string { return w.name }

// State returns the current lifecycle state.
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Worker) transition(from, to State) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != from {
		return fmt.Errorf("%w: %s -> %s from %s", ErrLifecycle, from, to, w.state)
	}
	w.state = to
	return nil
}

// Start brings the worker to StateServing. A complete bucket with the same
// name is reused without touching the network; an incomplete one, left by
// an interrupted install, is discarded and installed again.
func (w *Worker) Start(ctx context.Context) error {
	has, err := w.installed()
	if err != nil {
		w.logger.Warn("check installed cache", zap.Error(err))
	}
	if has {
		if err := w.transition(StateNew, StateInstalled); err != nil {
			return err
		}
		w.logger.Debug("reusing installed cache")
	} else if err := w.Install(ctx); err != nil {
		return err
	}
	return w.Activate(ctx)
}

func (w *Worker) installed() (bool, error) {
	has, err := w.storage.Has(w.name)
	if err != nil || !has {
		return false, err
	}
	bucket, err := w.storage.Open(w.name)
	if err != nil {
		return false, err
	}
	complete, err := bucket.Complete()
	if err != nil || complete {
		return complete, err
	}
	w.logger.Info("discarding incomplete cache")
	if _, err := w.storage.Delete(w.name); err != nil {
		return false, err
	}
	return false, nil
}

type captured struct {
	url    *url.URL
	status int
	header http.Header
	body   []byte
}

func (c captured) response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", c.status, http.StatusText(c.status)),
		StatusCode:    c.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        c.header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(c.body)),
		ContentLength: int64(len(c.body)),
		Request:       req,
	}
}

// Install fetches every manifest entry and stores them in the worker's
// bucket. Nothing is written unless every fetch succeeds; on failure the
// bucket is removed and the worker becomes redundant.
func (w *Worker) Install(ctx context.Context) error {
	if err := w.transition(StateNew, StateInstalling); err != nil {
		return err
	}

	entries, err := w.precache(ctx)
	if err != nil {
		w.setState(StateRedundant)
		w.logger.Warn("install failed", zap.Error(err))
		return fmt.Errorf("install %s: %w", w.name, err)
	}

	bucket, err := w.storage.Open(w.name)
	if err != nil {
		w.setState(StateRedundant)
		return fmt.Errorf("install %s: %w", w.name, err)
	}
	if err := w.store(bucket, entries); err != nil {
		if _, derr := w.storage.Delete(w.name); derr != nil {
			w.logger.Warn("remove partial cache", zap.Error(derr))
		}
		w.setState(StateRedundant)
		return fmt.Errorf("install %s: %w", w.name, err)
	}

	w.setState(StateInstalled)
	w.logger.Info("cache installed", zap.Int("entries", len(entries)))
	return nil
}

// store writes every entry, then the completion marker.
func (w *Worker) store(bucket *Bucket, entries []captured) error {
	for _, e := range entries {
		req := &http.Request{Method: http.MethodGet, URL: e.url, Header: http.Header{}}
		if err := bucket.Put(req, e.response(req)); err != nil {
			return err
		}
	}
	return bucket.MarkComplete()
}

func (w *Worker) precache(ctx context.Context) ([]captured, error) {
	targets := make([]*url.URL, 0, len(w.manifest))
	for _, entry := range w.manifest {
		u, err := w.resolve(entry)
		if err != nil {
			return nil, err
		}
		targets = append(targets, u)
	}

	results := make([]captured, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, target := range targets {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(gctx, http.MethodGet, target.String(), nil)
			if err != nil {
				return fmt.Errorf("build request %s: %w", target, err)
			}
			resp, err := w.next.RoundTrip(req)
			if err != nil {
				return fmt.Errorf("precache %s: %w", target, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("precache %s: status %d", target, resp.StatusCode)
			}
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("precache %s: %w", target, err)
			}
			results[i] = captured{url: target, status: resp.StatusCode, header: resp.Header.Clone(), body: body}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (w *Worker) resolve(entry string) (*url.URL, error) {
	u, err := url.Parse(entry)
	if err != nil {
		return nil, fmt.Errorf("parse manifest entry %q: %w", entry, err)
	}
	if w.base != nil {
		u = w.base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("manifest entry %q is not absolute", entry)
	}
	return u, nil
}

// Activate deletes every bucket other than the worker's own and starts
// serving. Storage failures during eviction are logged, not returned.
func (w *Worker) Activate(ctx context.Context) error {
	if err := w.transition(StateInstalled, StateActivating); err != nil {
		return err
	}

	names, err := w.storage.Keys()
	if err != nil {
		w.logger.Warn("list caches", zap.Error(err))
	}
	for _, name := range names {
		if name == w.name {
			continue
		}
		if err := ctx.Err(); err != nil {
			w.setState(StateInstalled)
			return err
		}
		if _, err := w.storage.Delete(name); err != nil {
			w.logger.Warn("evict cache", zap.String("stale", name), zap.Error(err))
			continue
		}
		w.logger.Info("evicted cache", zap.String("stale", name))
	}

	w.setState(StateServing)
	return nil
}

type fetchResult struct {
	resp *http.Response
	err  error
}

// RoundTrip answers GET requests from the bucket when possible and always
// refreshes the entry from the network in the background. Other methods,
// and every request before the worker is serving, go straight to the
// network.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || w.State() != StateServing {
		return w.next.RoundTrip(req)
	}

	bucket, err := w.storage.Open(w.name)
	if err != nil {
		w.logger.Warn("open cache", zap.Error(err))
		return w.next.RoundTrip(req)
	}
	cached, hit, err := bucket.Match(req)
	if err != nil {
		w.logger.Warn("match cache", zap.String("url", req.URL.String()), zap.Error(err))
		hit = false
	}

	results := make(chan fetchResult, 1)
	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		results <- w.revalidate(bucket, req, hit)
	}()

	if hit {
		cached.Request = req
		return cached, nil
	}
	select {
	case r := <-results:
		return r.resp, r.err
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}
}

func (w *Worker) revalidate(bucket *Bucket, req *http.Request, hit bool) fetchResult {
	out := req.Clone(context.WithoutCancel(req.Context()))
	resp, err := w.next.RoundTrip(out)
	if err != nil {
		if hit {
			w.logger.Debug("revalidate failed, serving cached", zap.String("url", req.URL.String()), zap.Error(err))
		}
		return fetchResult{err: err}
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return fetchResult{err: fmt.Errorf("read %s: %w", req.URL, err)}
	}

	c := captured{url: req.URL, status: resp.StatusCode, header: resp.Header.Clone(), body: body}
	if resp.StatusCode == http.StatusOK {
		if err := bucket.Put(req, c.response(req)); err != nil {
			w.logger.Warn("update cache", zap.String("url", req.URL.String()), zap.Error(err))
		}
	}
	return fetchResult{resp: c.response(req)}
}

// Wait blocks until every background revalidation has finished.
func (w *Worker) Wait() {
	w.inflight.Wait()
}

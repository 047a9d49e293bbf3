package picker

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/five82/songdeck/internal/catalog"
	"github.com/five82/songdeck/internal/history"
)

// DefaultHistoryKey is the storage key holding drawn song URLs.
const DefaultHistoryKey = "randomSongsHistory"

// Options configure a Picker.
type Options struct {
	Storage history.Storage
	Key     string          // empty uses DefaultHistoryKey
	Rand    func(n int) int // returns [0,n); nil uses math/rand/v2
	Logger  *zap.Logger
}

// Picker draws random songs without repeating one until every song in the
// catalog has been drawn. It is safe for concurrent use; draws are
// serialized so each one sees the history written by the previous one.
type Picker struct {
	mu      sync.Mutex
	storage history.Storage
	key     string
	rand    func(n int) int
	logger  *zap.Logger
}

// New builds a Picker. A nil Storage keeps history in memory only.
func New(opts Options) *Picker {
	p := &Picker{
		storage: opts.Storage,
		key:     opts.Key,
		rand:    opts.Rand,
		logger:  opts.Logger,
	}
	if p.storage == nil {
		p.storage = history.NewMemoryStorage()
	}
	if p.key == "" {
		p.key = DefaultHistoryKey
	}
	if p.rand == nil {
		p.rand = rand.IntN
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Pick draws one song from view. all is every drawable song (the unfiltered
// view) and defines when a full cycle has completed. It reports
// false when view is empty.
//
// When a filter is active and every song it matches has already been drawn,
// the draw falls back to the whole view and is not recorded, so a narrow
// filter never forces the catalog-wide history to reset.
func (p *Picker) Pick(ctx context.Context, view, all []catalog.Song) (catalog.Song, bool) {
	if len(view) == 0 {
		return catalog.Song{}, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	seen := p.load(ctx)
	catalogURLs := distinctURLs(all)
	if len(catalogURLs) > 0 && coversAll(seen, catalogURLs) {
		seen = map[string]struct{}{}
		p.logger.Debug("random history completed a full cycle", zap.Int("catalog", len(catalogURLs)))
	}

	remaining := make([]catalog.Song, 0, len(view))
	for _, song := range view {
		if _, ok := seen[song.URL]; !ok {
			remaining = append(remaining, song)
		}
	}

	record := true
	if len(remaining) == 0 {
		if !isStrictSubset(view, catalogURLs) {
			// Unreachable with a consistent catalog; draw anyway rather than fail.
			p.logger.Warn("random history exhausted without a filter", zap.Int("view", len(view)))
		}
		remaining = view
		record = false
	}

	chosen := remaining[p.rand(len(remaining))]
	if record {
		seen[chosen.URL] = struct{}{}
		p.save(ctx, prune(seen, catalogURLs))
	}
	return chosen, true
}

// History returns the persisted song URLs.
func (p *Picker) History(ctx context.Context) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return sortedKeys(p.load(ctx))
}

// Reset clears the persisted history.
func (p *Picker) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.storage.Set(ctx, p.key, []byte("[]"))
}

func (p *Picker) load(ctx context.Context) map[string]struct{} {
	seen := map[string]struct{}{}
	raw, err := p.storage.Get(ctx, p.key)
	if err != nil {
		if !errors.Is(err, history.ErrNotFound) {
			p.logger.Warn("read random history", zap.Error(err))
		}
		return seen
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		p.logger.Warn("parse random history", zap.Error(err))
		return seen
	}
	for _, u := range urls {
		seen[u] = struct{}{}
	}
	return seen
}

func (p *Picker) save(ctx context.Context, seen map[string]struct{}) {
	raw, err := json.Marshal(sortedKeys(seen))
	if err != nil {
		p.logger.Warn("encode random history", zap.Error(err))
		return
	}
	if err := p.storage.Set(ctx, p.key, raw); err != nil {
		p.logger.Warn("persist random history", zap.Error(err))
	}
}

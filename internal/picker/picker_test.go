package picker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/five82/songdeck/internal/catalog"
	"github.com/five82/songdeck/internal/history"
)

func songs(urls ...string) []catalog.Song {
	out := make([]catalog.Song, len(urls))
	for i, u := range urls {
		out[i] = catalog.Song{Title: "T " + u, Band: "B", Language: "L", URL: u}
	}
	return out
}

func first(int) int { return 0 }

type failingStorage struct {
	getErr error
	setErr error
	sets   int
}

func (f *failingStorage) Get(context.Context, string) ([]byte, error) { return nil, f.getErr }

func (f *failingStorage) Set(context.Context, string, []byte) error {
	f.sets++
	return f.setErr
}

func TestPick_EmptyViewReturnsNothing(t *testing.T) {
	p := New(Options{Logger: zaptest.NewLogger(t)})

	_, ok := p.Pick(context.Background(), nil, songs("u1"))

	assert.False(t, ok)
}

func TestPick_ThreeSongCycleThenReset(t *testing.T) {
	ctx := context.Background()
	all := songs("u1", "u2", "u3")
	p := New(Options{Storage: history.NewMemoryStorage(), Logger: zaptest.NewLogger(t)})

	drawn := map[string]bool{}
	for i := 0; i < 3; i++ {
		s, ok := p.Pick(ctx, all, all)
		require.True(t, ok)
		assert.False(t, drawn[s.URL], "draw %d repeated %s", i+1, s.URL)
		drawn[s.URL] = true
	}
	assert.Len(t, drawn, 3)
	assert.Equal(t, []string{"u1", "u2", "u3"}, p.History(ctx))

	_, ok := p.Pick(ctx, all, all)
	require.True(t, ok)
	assert.Len(t, p.History(ctx), 1, "history resets before the fourth draw")
}

func TestPick_EachSongOncePerCycleWithRealRandom(t *testing.T) {
	ctx := context.Background()
	urls := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	all := songs(urls...)
	p := New(Options{})

	for cycle := 0; cycle < 3; cycle++ {
		drawn := map[string]int{}
		for i := 0; i < len(all); i++ {
			s, ok := p.Pick(ctx, all, all)
			require.True(t, ok)
			drawn[s.URL]++
		}
		for _, u := range urls {
			assert.Equal(t, 1, drawn[u], "cycle %d: %s", cycle, u)
		}
	}
}

func TestPick_HistorySurvivesNewPicker(t *testing.T) {
	ctx := context.Background()
	storage := history.NewMemoryStorage()
	all := songs("u1", "u2")

	s1, _ := New(Options{Storage: storage, Rand: first}).Pick(ctx, all, all)
	s2, _ := New(Options{Storage: storage, Rand: first}).Pick(ctx, all, all)

	assert.Equal(t, "u1", s1.URL)
	assert.Equal(t, "u2", s2.URL)
}

func TestPick_FilteredExhaustedFallsBackWithoutRecording(t *testing.T) {
	ctx := context.Background()
	storage := history.NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, DefaultHistoryKey, []byte(`["u1","u2"]`)))
	all := songs("u1", "u2", "u3", "u4")
	view := all[:2]
	p := New(Options{Storage: storage, Rand: first})

	for i := 0; i < 5; i++ {
		s, ok := p.Pick(ctx, view, all)
		require.True(t, ok)
		assert.Contains(t, []string{"u1", "u2"}, s.URL)
	}
	assert.Equal(t, []string{"u1", "u2"}, p.History(ctx), "fallback draws are not recorded")
}

func TestPick_FilteredPrefersUnseen(t *testing.T) {
	ctx := context.Background()
	storage := history.NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, DefaultHistoryKey, []byte(`["u1"]`)))
	all := songs("u1", "u2", "u3")
	p := New(Options{Storage: storage, Rand: first})

	s, ok := p.Pick(ctx, all[:2], all)

	require.True(t, ok)
	assert.Equal(t, "u2", s.URL)
	assert.Equal(t, []string{"u1", "u2"}, p.History(ctx))
}

func TestPick_DuplicateURLsCountOnce(t *testing.T) {
	ctx := context.Background()
	all := songs("u1", "u2", "u2")
	p := New(Options{Rand: first})

	a, _ := p.Pick(ctx, all, all)
	b, _ := p.Pick(ctx, all, all)
	c, _ := p.Pick(ctx, all, all)

	assert.Equal(t, "u1", a.URL)
	assert.Equal(t, "u2", b.URL)
	assert.Equal(t, "u1", c.URL, "cycle resets once both distinct urls are drawn")
	assert.Equal(t, []string{"u1"}, p.History(ctx))
}

func TestPick_StaleHistoryIsPruned(t *testing.T) {
	ctx := context.Background()
	storage := history.NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, DefaultHistoryKey, []byte(`["gone1","gone2","gone3"]`)))
	all := songs("u1", "u2")
	p := New(Options{Storage: storage, Rand: first})

	s, ok := p.Pick(ctx, all, all)

	require.True(t, ok)
	assert.Equal(t, "u1", s.URL)
	assert.Equal(t, []string{"u1"}, p.History(ctx))
}

func TestPick_StorageFailuresAreLoggedNotFatal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	storage := &failingStorage{getErr: errors.New("disk gone"), setErr: errors.New("read-only")}
	p := New(Options{Storage: storage, Rand: first, Logger: zap.New(core)})
	all := songs("u1", "u2")

	s, ok := p.Pick(context.Background(), all, all)

	require.True(t, ok)
	assert.Equal(t, "u1", s.URL)
	assert.Equal(t, 1, storage.sets)
	assert.Equal(t, 1, logs.FilterMessage("read random history").Len())
	assert.Equal(t, 1, logs.FilterMessage("persist random history").Len())
}

func TestPick_CorruptHistoryTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	storage := history.NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, DefaultHistoryKey, []byte(`{"not":"a list"}`)))
	all := songs("u1", "u2")
	p := New(Options{Storage: storage, Rand: first})

	s, ok := p.Pick(ctx, all, all)

	require.True(t, ok)
	assert.Equal(t, "u1", s.URL)
	assert.Equal(t, []string{"u1"}, p.History(ctx))
}

func TestReset_ClearsHistory(t *testing.T) {
	ctx := context.Background()
	all := songs("u1", "u2")
	p := New(Options{Rand: first})
	p.Pick(ctx, all, all)

	require.NoError(t, p.Reset(ctx))

	assert.Empty(t, p.History(ctx))
}

// slowStorage widens the window between reading and writing history.
type slowStorage struct {
	*history.MemoryStorage
	delay time.Duration
}

func (s slowStorage) Get(ctx context.Context, key string) ([]byte, error) {
	time.Sleep(s.delay)
	return s.MemoryStorage.Get(ctx, key)
}

func TestPick_ConcurrentDrawsNeverRepeatWithinCycle(t *testing.T) {
	urls := make([]string, 8)
	for i := range urls {
		urls[i] = fmt.Sprintf("u%d", i+1)
	}
	all := songs(urls...)
	p := New(Options{Storage: slowStorage{MemoryStorage: history.NewMemoryStorage(), delay: 2 * time.Millisecond}})

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		drawn = map[string]int{}
	)
	for range all {
		wg.Add(1)
		go func() {
			defer wg.Done()
			song, ok := p.Pick(context.Background(), all, all)
			if !ok {
				return
			}
			mu.Lock()
			drawn[song.URL]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, drawn, len(all), "every song drawn once: %v", drawn)
	for u, n := range drawn {
		assert.Equal(t, 1, n, "song %s drawn %d times", u, n)
	}
	assert.ElementsMatch(t, urls, p.History(context.Background()))
}

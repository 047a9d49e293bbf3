package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/songdeck/internal/catalog"
)

// Snapshot is the catalog load status visible to the UI and the server.
type Snapshot struct {
	Songs       []catalog.Song
	Loaded      bool
	LastUpdated time.Time
	LastError   error
}

// Pending reports whether no load attempt has finished yet.
func (s Snapshot) Pending() bool {
	return !s.Loaded && s.LastError == nil
}

// Failed reports whether the catalog could not be loaded at all.
func (s Snapshot) Failed() bool {
	return !s.Loaded && s.LastError != nil
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records the outcome of a load. When err is non-nil the previous
// catalog is kept and the error is recorded.
func (s *Store) Update(songs []catalog.Song, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		return
	}
	s.snapshot.Songs = cloneSongs(songs)
	s.snapshot.Loaded = true
	s.snapshot.LastError = nil
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Songs = cloneSongs(s.snapshot.Songs)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneSongs(songs []catalog.Song) []catalog.Song {
	if len(songs) == 0 {
		return nil
	}
	dup := make([]catalog.Song, len(songs))
	copy(dup, songs)
	return dup
}

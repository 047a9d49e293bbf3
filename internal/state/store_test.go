package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/songdeck/internal/catalog"
)

func TestStore_ZeroValueIsPending(t *testing.T) {
	var s Store
	snap := s.Snapshot()
	if !snap.Pending() || snap.Failed() || snap.Loaded {
		t.Fatalf("zero snapshot = %#v, want pending", snap)
	}
}

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	songs := []catalog.Song{{Title: "Song01", URL: "u1"}, {Title: "Song02", URL: "u2"}}

	before := time.Now()
	s.Update(songs, nil)

	snap := s.Snapshot()
	if !snap.Loaded || snap.Pending() || snap.Failed() {
		t.Fatalf("snapshot = %#v, want loaded", snap)
	}
	if len(snap.Songs) != 2 || snap.Songs[0].Title != "Song01" {
		t.Fatalf("snapshot songs = %#v, want 2 songs", snap.Songs)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	songs[1].Title = "changed"
	snap.Songs[0].Title = "changed"
	snap2 := s.Snapshot()
	if snap2.Songs[0].Title != "Song01" || snap2.Songs[1].Title != "Song02" {
		t.Fatalf("Snapshot should clone songs; got %#v", snap2.Songs)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update([]catalog.Song{{Title: "Song01"}}, nil)

	before := time.Now()
	origErr := errors.New("boom")
	s.Update(nil, origErr)

	snap := s.Snapshot()
	if !snap.Loaded || snap.Failed() {
		t.Fatalf("snapshot = %#v, want loaded after a later failure", snap)
	}
	if len(snap.Songs) != 1 || snap.Songs[0].Title != "Song01" {
		t.Fatalf("songs changed on error: got %#v", snap.Songs)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if !errors.Is(snap.LastError, origErr) {
		t.Fatalf("LastError should wrap the recorded error")
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_FirstLoadFailure(t *testing.T) {
	var s Store
	s.Update(nil, errors.New("offline"))

	snap := s.Snapshot()
	if !snap.Failed() || snap.Pending() {
		t.Fatalf("snapshot = %#v, want failed", snap)
	}
	if snap.Songs != nil {
		t.Fatalf("Songs = %#v, want nil", snap.Songs)
	}
}

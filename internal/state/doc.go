// Package state holds the catalog load status shared between the loader
// goroutine and its readers.
//
// Store is safe for concurrent use and ready as a zero value. Update
// replaces the catalog on success and keeps the previous one on failure,
// recording the error:
//
//	store.Update(songs, nil)  // Loaded = true, LastError = nil
//	store.Update(nil, err)    // Songs unchanged, LastError = err
//
// Snapshot returns copies, so callers may sort or filter the songs they
// receive without affecting other readers.
package state

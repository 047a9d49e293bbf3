// Package source loads the song catalog.
//
// Client fetches a JSON array of songs from a single URL. Its transport is
// injectable, so the offline worker can answer catalog requests from disk.
// FileLoader reads a local JSON or YAML file, or the built-in sample
// catalog when no path is given.
//
// Every failure wraps ErrUnavailable and yields no songs: a partial
// catalog is never returned. Notes are reduced to plain text before they
// leave this package.
package source

package source

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/five82/songdeck/internal/catalog"
)

var notesPolicy = bluemonday.StrictPolicy()

// Sanitize returns a copy of songs with markup stripped from notes.
func Sanitize(songs []catalog.Song) []catalog.Song {
	out := make([]catalog.Song, len(songs))
	for i, s := range songs {
		s.Notes = cleanNotes(s.Notes)
		out[i] = s
	}
	return out
}

func cleanNotes(notes string) string {
	if notes == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(notesPolicy.Sanitize(notes)))
}

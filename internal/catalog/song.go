package catalog

import "strings"

// Song is a single catalog record as served by the catalog source.
// URL is the durable identifier used by the random history.
type Song struct {
	Title    string `json:"title" yaml:"title"`
	Band     string `json:"band" yaml:"band"`
	Language string `json:"language" yaml:"language"`
	URL      string `json:"url" yaml:"url"`
	Notes    string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Blank reports whether the song lacks a band or title. Blank songs stay in
// the catalog but never appear in a view.
func (s Song) Blank() bool {
	return strings.TrimSpace(s.Band) == "" || strings.TrimSpace(s.Title) == ""
}

// HasNotes reports whether the song carries a non-empty note.
func (s Song) HasNotes() bool {
	return strings.TrimSpace(s.Notes) != ""
}

// FilterState is the user's current filter selection. Empty fields match
// everything.
type FilterState struct {
	Language   string
	Band       string
	TitleQuery string
}

// Active reports whether any filter narrows the catalog.
func (f FilterState) Active() bool {
	return f.Language != "" || f.Band != "" || strings.TrimSpace(f.TitleQuery) != ""
}

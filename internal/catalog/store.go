package catalog

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// Store holds the loaded catalog and derives filter options and views from
// it. It performs no I/O and is not safe for concurrent mutation; confine it
// to one goroutine or guard it externally.
type Store struct {
	songs []Song
}

// NewStore returns a Store holding a copy of songs.
func NewStore(songs []Song) *Store {
	s := &Store{}
	s.Load(songs)
	return s
}

// Load replaces the catalog with a copy of songs.
func (s *Store) Load(songs []Song) {
	s.songs = slices.Clone(songs)
}

// Songs returns a copy of the full catalog in its current order.
func (s *Store) Songs() []Song {
	return slices.Clone(s.songs)
}

// Len reports the catalog size, blank songs included.
func (s *Store) Len() int {
	return len(s.songs)
}

// Sort reorders the catalog in place.
func (s *Store) Sort(sorter *Sorter, state SortState) {
	sorter.Sort(s.songs, state)
}

// LanguageOptions returns the distinct non-blank languages, sorted.
func (s *Store) LanguageOptions() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, song := range s.songs {
		if strings.TrimSpace(song.Language) == "" {
			continue
		}
		if _, ok := seen[song.Language]; ok {
			continue
		}
		seen[song.Language] = struct{}{}
		out = append(out, song.Language)
	}
	sortOptions(out)
	return out
}

// BandOptions returns the distinct non-blank bands that occur with the
// selected language, or every band when no language is selected. The band
// selection itself never narrows the result.
func (s *Store) BandOptions(filter FilterState) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, song := range s.songs {
		if strings.TrimSpace(song.Band) == "" {
			continue
		}
		if filter.Language != "" && song.Language != filter.Language {
			continue
		}
		if _, ok := seen[song.Band]; ok {
			continue
		}
		seen[song.Band] = struct{}{}
		out = append(out, song.Band)
	}
	sortOptions(out)
	return out
}

// View returns the songs matching filter, in catalog order.
func (s *Store) View(filter FilterState) []Song {
	query := Normalize(strings.TrimSpace(filter.TitleQuery))
	out := make([]Song, 0, len(s.songs))
	for _, song := range s.songs {
		if matches(song, filter, query) {
			out = append(out, song)
		}
	}
	return out
}

// matches applies the language and band predicates before the title search;
// the normalized title is only computed for songs that passed both.
func matches(song Song, filter FilterState, query string) bool {
	if song.Blank() {
		return false
	}
	if filter.Language != "" && song.Language != filter.Language {
		return false
	}
	if filter.Band != "" && song.Band != filter.Band {
		return false
	}
	if query == "" {
		return true
	}
	return strings.Contains(Normalize(song.Title), query)
}

func sortOptions(values []string) {
	c := newCollator(language.Und)
	slices.SortStableFunc(values, func(a, b string) int {
		if n := c.CompareString(a, b); n != 0 {
			return n
		}
		return strings.Compare(a, b)
	})
}

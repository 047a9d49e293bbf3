package catalog

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey names a sortable column.
type SortKey string

const (
	SortByBand  SortKey = "band"
	SortByTitle SortKey = "title"
)

// sortKeys is the fixed tie-break order.
var sortKeys = []SortKey{SortByBand, SortByTitle}

// SortKeys returns the sortable keys in tie-break order.
func SortKeys() []SortKey {
	return slices.Clone(sortKeys)
}

// ParseSortKey accepts "band" or "title" in any case.
func ParseSortKey(value string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(value))) {
	case SortByBand:
		return SortByBand, nil
	case SortByTitle:
		return SortByTitle, nil
	}
	return "", fmt.Errorf("unknown sort key %q", value)
}

func (k SortKey) value(s Song) string {
	if k == SortByTitle {
		return s.Title
	}
	return s.Band
}

// Direction is the primary key's sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(value string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(value))) {
	case Ascending:
		return Ascending, nil
	case Descending:
		return Descending, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", value)
}

func (d Direction) sign() int {
	if d == Descending {
		return -1
	}
	return 1
}

// SortState is the active primary key and its direction.
type SortState struct {
	Key       SortKey
	Direction Direction
}

// DefaultSortState sorts by band, ascending.
func DefaultSortState() SortState {
	return SortState{Key: SortByBand, Direction: Ascending}
}

// Toggle returns the state after the user selects key: the active key flips
// direction, any other key becomes active in ascending order.
func (s SortState) Toggle(key SortKey) SortState {
	if s.Key == key {
		if s.Direction == Ascending {
			return SortState{Key: key, Direction: Descending}
		}
		return SortState{Key: key, Direction: Ascending}
	}
	return SortState{Key: key, Direction: Ascending}
}

// Indicator returns the header marker for key; only the active key has one.
func (s SortState) Indicator(key SortKey) string {
	if s.Key != key {
		return ""
	}
	if s.Direction == Descending {
		return "▼"
	}
	return "▲"
}

// Sorter orders songs with a locale-aware collator that ignores case and
// diacritics. A collator reuses internal buffers, so calls are serialized.
type Sorter struct {
	mu       sync.Mutex
	collator *collate.Collator
}

// DefaultLanguage selects the root collation order.
var DefaultLanguage = language.Und

// NewSorter builds a Sorter for the given locale. language.Und uses the
// root collation order.
func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{collator: newCollator(tag)}
}

func newCollator(tag language.Tag) *collate.Collator {
	return collate.New(tag, collate.IgnoreCase, collate.IgnoreDiacritics)
}

// Compare orders a and b by the primary key in the state's direction, then by
// the remaining keys ascending.
func (s *Sorter) Compare(a, b Song, state SortState) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compare(a, b, state)
}

// Sort orders songs in place. Equal songs keep their relative order.
func (s *Sorter) Sort(songs []Song, state SortState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slices.SortStableFunc(songs, func(a, b Song) int {
		return s.compare(a, b, state)
	})
}

func (s *Sorter) compare(a, b Song, state SortState) int {
	key := state.Key
	if key == "" {
		key = SortByBand
	}
	if c := s.collator.CompareString(key.value(a), key.value(b)) * state.Direction.sign(); c != 0 {
		return c
	}
	for _, alt := range sortKeys {
		if alt == key {
			continue
		}
		if c := s.collator.CompareString(alt.value(a), alt.value(b)); c != 0 {
			return c
		}
	}
	return 0
}

package catalog

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize strips diacritics and case-folds s so "Canción" and "cancion"
// compare equal.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// Transformers and casers keep state, so build them per call.
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(strip, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

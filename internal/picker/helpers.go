package picker

import (
	"slices"

	"github.com/five82/songdeck/internal/catalog"
)

func distinctURLs(songs []catalog.Song) map[string]struct{} {
	out := make(map[string]struct{}, len(songs))
	for _, s := range songs {
		out[s.URL] = struct{}{}
	}
	return out
}

func coversAll(seen, catalogURLs map[string]struct{}) bool {
	for u := range catalogURLs {
		if _, ok := seen[u]; !ok {
			return false
		}
	}
	return true
}

// isStrictSubset reports whether view covers fewer distinct URLs than the
// catalog, which is how an active filter shows up.
func isStrictSubset(view []catalog.Song, catalogURLs map[string]struct{}) bool {
	return len(distinctURLs(view)) < len(catalogURLs)
}

// prune drops URLs that are no longer in the catalog so history never
// outgrows it.
func prune(seen, catalogURLs map[string]struct{}) map[string]struct{} {
	if len(catalogURLs) == 0 {
		return seen
	}
	out := make(map[string]struct{}, len(seen))
	for u := range seen {
		if _, ok := catalogURLs[u]; ok {
			out[u] = struct{}{}
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

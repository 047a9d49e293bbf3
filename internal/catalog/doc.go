// Package catalog holds the loaded song catalog and the pure operations the
// UI runs over it: filter option lists, filtered views, and the multi-key
// sort.
//
// # Filtering
//
// A view keeps songs whose band and title are non-blank and that match the
// selected language and band exactly. The title query is compared only for
// songs that already passed those two checks, after both sides have had
// diacritics stripped and case folded.
//
// Band options depend on the selected language; language options never
// depend on the band.
//
// # Sorting
//
// Sorter compares the primary key in the active direction and breaks ties
// with the remaining keys of [band, title] in ascending order. Comparisons
// use golang.org/x/text/collate with case and diacritics ignored. Sorting is
// stable.
package catalog

// Package offline keeps a versioned on-disk copy of the catalog and its
// assets so the app keeps working without a network.
//
// A Worker is installed once per cache name: it fetches the precache
// manifest, stores it in a fresh bucket, and on activation removes every
// bucket with a different name. While serving it acts as an
// http.RoundTripper that returns cached GET responses immediately and
// refreshes them from the network in the background.
package offline

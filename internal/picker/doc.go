// Package picker draws random songs from the current view while avoiding
// repeats across sessions. Drawn song URLs are persisted through a
// history.Storage; storage failures are logged and never reach the caller.
package picker

// Package history provides the durable key-value storage the random picker
// uses to remember previously drawn songs across sessions.
//
// Three backends implement Storage: a JSON document on a go-billy
// filesystem (the default), a SQLite table, and process memory. Callers
// treat every backend error as recoverable.
package history

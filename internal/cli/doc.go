// Package cli parses the songdeck command line with go-flags and
// dispatches to the app package. Running without a subcommand opens the
// browser.
package cli

// Package app is the composition root for songdeck.
//
// It loads configuration, builds the logger, opens the random history
// storage, and chooses the catalog source: a local file (or the built-in
// sample) when no catalog_url is set, otherwise an HTTP client. When the
// offline cache is enabled the client's transport is an offline.Worker,
// started lazily on the first catalog fetch so a cold start shows the
// loading state while the cache installs.
//
// Three entry points share that wiring:
//
//   - Browse runs the Bubble Tea UI and logs to the log file.
//   - Serve runs the JSON API and logs to stdout. A background poller
//     loads the catalog and optionally reloads it on a fixed cadence.
//   - Pick draws a single song, for scripts and shell prompts.
package app

// Package server exposes the catalog over a small JSON API for
// `songdeck serve`.
//
//	GET  /healthz
//	GET  /api/songs?language=&band=&q=&sort=band|title&dir=asc|desc
//	GET  /api/options?language=
//	POST /api/random?language=&band=&q=
//
// Every /api route answers 503 until the catalog has loaded. /api/random
// answers 204 when the filtered view is empty.
package server

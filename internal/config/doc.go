// Package config loads songdeck settings from a TOML file.
//
// The default location is ~/.config/songdeck/config.toml. A missing file is
// not an error: every field has a default. A file that fails to parse is.
//
// Example:
//
//	catalog_url = "https://songs.example/exec"
//	request_timeout_seconds = 10
//	data_dir = "~/.local/share/songdeck"
//	log_level = "info"
//
//	[history]
//	backend = "sqlite"   # file, sqlite or memory
//
//	[offline]
//	enabled = true
//	version = "v2"       # bump to drop previously cached copies
//	precache = ["https://songs.example/exec"]
//
//	[server]
//	addr = "127.0.0.1:8080"
//
// Paths accept a leading ~ and are made absolute. Blank values fall back to
// their defaults. Without catalog_url or catalog_file the built-in sample
// catalog is used and the offline cache stays off.
package config

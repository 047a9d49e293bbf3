package cli

import (
	"context"
	"io"
	"time"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file (default ~/.config/songdeck/config.toml)"`
	Prefs   string `long:"prefs" description:"Path to preferences file (default ~/.config/songdeck/prefs.toml)"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// env carries what every command needs at execution time.
type env struct {
	ctx     context.Context
	globals *GlobalFlags
	out     io.Writer
	run     runners
}

// BrowseCommand runs the terminal UI. It is the default command.
type BrowseCommand struct {
	env *env
}

// ServeCommand runs the JSON API.
type ServeCommand struct {
	Addr    string        `long:"addr" description:"Listen address (overrides server.addr)"`
	Refresh time.Duration `long:"refresh" description:"Reload the catalog at this interval (e.g. 10m); 0 loads once" default:"0"`

	env *env
}

// PickCommand draws one random song.
type PickCommand struct {
	Language string `long:"language" short:"l" description:"Only songs in this language"`
	Band     string `long:"band" short:"b" description:"Only songs by this band"`
	Query    string `long:"query" short:"q" description:"Only songs whose title contains this text"`
	Reset    bool   `long:"reset" description:"Clear the random history instead of picking"`

	env *env
}

// LogsCommand prints recent log entries.
type LogsCommand struct {
	Lines int    `long:"lines" short:"n" description:"Number of log lines to read from the end" default:"50"`
	Level string `long:"level" description:"Minimum level to show (debug, info, warn, error)"`

	env *env
}

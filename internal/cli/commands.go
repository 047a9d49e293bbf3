package cli

import (
	"fmt"
	"strings"

	"github.com/five82/songdeck/internal/app"
	"github.com/five82/songdeck/internal/catalog"
)

// Execute implements the go-flags Commander interface for BrowseCommand.
func (c *BrowseCommand) Execute(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("browse takes no arguments, got %q", strings.Join(args, " "))
	}
	return c.env.run.browse(c.env.ctx, c.env.appOptions())
}

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("serve takes no arguments, got %q", strings.Join(args, " "))
	}
	if c.Refresh < 0 {
		return fmt.Errorf("--refresh must not be negative")
	}
	return c.env.run.serve(c.env.ctx, c.env.appOptions(), app.ServeOptions{
		Addr:    strings.TrimSpace(c.Addr),
		Refresh: c.Refresh,
	})
}

// Execute implements the go-flags Commander interface for PickCommand.
// Positional arguments are joined into the title query.
func (c *PickCommand) Execute(args []string) error {
	query := c.Query
	if len(args) > 0 {
		query = strings.TrimSpace(query + " " + strings.Join(args, " "))
	}
	return c.env.run.pick(c.env.ctx, c.env.appOptions(), app.PickOptions{
		Filter: catalog.FilterState{
			Language:   strings.TrimSpace(c.Language),
			Band:       strings.TrimSpace(c.Band),
			TitleQuery: query,
		},
		Reset: c.Reset,
		Out:   c.env.out,
	})
}

// Execute implements the go-flags Commander interface for LogsCommand.
func (c *LogsCommand) Execute(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("logs takes no arguments, got %q", strings.Join(args, " "))
	}
	return c.env.run.logs(c.env.appOptions(), app.LogsOptions{
		Lines:    c.Lines,
		MinLevel: c.Level,
		Out:      c.env.out,
	})
}

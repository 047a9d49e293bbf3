package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	goflags "github.com/jessevdk/go-flags"

	"github.com/five82/songdeck/internal/app"
)

// runners are the application entry points; tests replace them.
type runners struct {
	browse func(context.Context, app.Options) error
	serve  func(context.Context, app.Options, app.ServeOptions) error
	pick   func(context.Context, app.Options, app.PickOptions) error
	logs   func(app.Options, app.LogsOptions) error
}

func defaultRunners() runners {
	return runners{browse: app.Browse, serve: app.Serve, pick: app.Pick, logs: app.Logs}
}

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Browse *BrowseCommand
	Serve  *ServeCommand
	Pick   *PickCommand
	Logs   *LogsCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(e *env) (*goflags.Parser, *commands) {
	parser := goflags.NewParser(e.globals, goflags.Default)
	parser.Name = "songdeck"
	parser.LongDescription = "Browse, filter, and shuffle a song catalog from the terminal."
	parser.SubcommandsOptional = true

	cmds := &commands{
		Browse: &BrowseCommand{env: e},
		Serve:  &ServeCommand{env: e},
		Pick:   &PickCommand{env: e},
		Logs:   &LogsCommand{env: e},
	}

	parser.AddCommand("browse", "Browse the catalog (default)", "Open the interactive song browser.", cmds.Browse)
	parser.AddCommand("serve", "Serve the catalog as JSON", "Serve the filtered, sorted catalog and random picks over HTTP.", cmds.Serve)
	parser.AddCommand("pick", "Print a random song", "Pick a random song that has not been drawn in the current cycle.", cmds.Pick)
	parser.AddCommand("logs", "Show recent log entries", "Print the most recent entries of the songdeck log file.", cmds.Logs)

	return parser, cmds
}

// Run parses os.Args and executes the matched subcommand.
func Run(ctx context.Context, version string) error {
	return run(ctx, version, os.Args[1:], os.Stdout, defaultRunners())
}

func run(ctx context.Context, version string, args []string, out io.Writer, r runners) error {
	// go-flags would otherwise dispatch to the default command first.
	for _, arg := range args {
		if arg == "--version" {
			_, err := fmt.Fprintf(out, "songdeck %s\n", version)
			return err
		}
		if arg == "--" {
			break
		}
	}

	e := &env{ctx: ctx, globals: &GlobalFlags{}, out: out, run: r}
	parser, cmds := buildParser(e)

	rest, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			return nil
		}
		return err
	}
	if parser.Active == nil {
		if len(rest) > 0 {
			return fmt.Errorf("unknown command %q", rest[0])
		}
		return cmds.Browse.Execute(nil)
	}
	return nil
}

func (e *env) appOptions() app.Options {
	return app.Options{ConfigPath: e.globals.Config, PrefsPath: e.globals.Prefs}
}

package app

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/five82/songdeck/internal/config"
	"github.com/five82/songdeck/internal/logtail"
)

const defaultLogLines = 50

// LogsOptions configure Logs.
type LogsOptions struct {
	Lines    int    // zero uses the last 50 lines
	MinLevel string // empty shows every level
	Out      io.Writer
}

// Logs prints the entries among the last Lines of the log file that are at
// or above MinLevel.
func Logs(opts Options, logsOpts LogsOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	minLevel := zapcore.DebugLevel
	if lvl := strings.TrimSpace(logsOpts.MinLevel); lvl != "" {
		if minLevel, err = zapcore.ParseLevel(strings.ToLower(lvl)); err != nil {
			return fmt.Errorf("invalid level %q: %w", lvl, err)
		}
	}
	n := logsOpts.Lines
	if n <= 0 {
		n = defaultLogLines
	}
	out := logsOpts.Out
	if out == nil {
		out = io.Discard
	}

	lines, err := logtail.Read(cfg.LogFile, n)
	if err != nil {
		return err
	}
	styles := logtail.DefaultStyles()
	for _, line := range lines {
		entry := logtail.Parse(line)
		if entry.Level < minLevel {
			continue
		}
		if _, err := fmt.Fprintln(out, styles.Format(entry)); err != nil {
			return err
		}
	}
	return nil
}

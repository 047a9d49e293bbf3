// Package logtail reads the tail of songdeck's JSON log file and renders
// entries as aligned, colored lines for the terminal.
package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap/zapcore"
)

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count, next := 0, 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % maxLines
		count = min(count+1, maxLines)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	if count < maxLines {
		return ring[:count], nil
	}
	return append(ring[next:], ring[:next]...), nil
}

// Entry is one decoded log line.
type Entry struct {
	Time    time.Time
	Level   zapcore.Level
	Logger  string
	Message string
	Fields  map[string]any
	Raw     string // set when the line is not a JSON log entry
}

// Parse decodes a line written by the songdeck logger. Lines that are not
// JSON objects come back with only Raw set and level info.
func Parse(line string) Entry {
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return Entry{Level: zapcore.InfoLevel, Raw: line}
	}

	e := Entry{Level: zapcore.InfoLevel, Fields: fields}
	if v, ok := fields["severity"].(string); ok {
		if lvl, err := zapcore.ParseLevel(strings.ToLower(v)); err == nil {
			e.Level = lvl
		}
	}
	if v, ok := fields["timestamp"].(string); ok {
		e.Time, _ = time.Parse(time.RFC3339Nano, v)
	}
	e.Logger, _ = fields["logger"].(string)
	e.Message, _ = fields["message"].(string)
	for _, k := range []string{"severity", "timestamp", "logger", "message", "caller"} {
		delete(fields, k)
	}
	return e
}

// Styles color each part of a rendered entry.
type Styles struct {
	Time   lipgloss.Style
	Logger lipgloss.Style
	Key    lipgloss.Style
	Levels map[zapcore.Level]lipgloss.Style
}

// DefaultStyles matches the browser's default palette.
func DefaultStyles() Styles {
	return Styles{
		Time:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4")),
		Logger: lipgloss.NewStyle().Foreground(lipgloss.Color("#8be9fd")),
		Key:    lipgloss.NewStyle().Foreground(lipgloss.Color("#bd93f9")),
		Levels: map[zapcore.Level]lipgloss.Style{
			zapcore.DebugLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4")),
			zapcore.InfoLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#50fa7b")),
			zapcore.WarnLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f1fa8c")),
			zapcore.ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555")).Bold(true),
		},
	}
}

func (s Styles) level(l zapcore.Level) lipgloss.Style {
	if style, ok := s.Levels[l]; ok {
		return style
	}
	if l > zapcore.ErrorLevel {
		return s.Levels[zapcore.ErrorLevel]
	}
	return lipgloss.NewStyle()
}

// Format renders an entry as "15:04:05 LEVEL logger message key=value ...",
// with fields in key order.
func (s Styles) Format(e Entry) string {
	if e.Raw != "" {
		return e.Raw
	}

	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(s.Time.Render(e.Time.Local().Format(time.TimeOnly)))
		b.WriteString(" ")
	}
	b.WriteString(s.level(e.Level).Render(fmt.Sprintf("%-5s", e.Level.CapitalString())))
	if e.Logger != "" {
		b.WriteString(" ")
		b.WriteString(s.Logger.Render(e.Logger))
	}
	b.WriteString(" ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(s.Key.Render(k + "="))
		b.WriteString(formatValue(e.Fields[k]))
	}
	return b.String()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		if strings.ContainsAny(v, " \t\"=") {
			return fmt.Sprintf("%q", v)
		}
		return v
	case nil:
		return "null"
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(raw)
	}
}

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// truncate shortens a string to the given display width, adding an
// ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return ""
	}
	if lipgloss.Width(value) <= limit {
		return value
	}
	if limit <= 3 {
		return takeWidth(value, limit)
	}
	return takeWidth(value, limit-3) + "..."
}

// takeWidth returns the longest prefix of value no wider than limit.
func takeWidth(value string, limit int) string {
	var b strings.Builder
	width := 0
	for _, r := range value {
		w := lipgloss.Width(string(r))
		if width+w > limit {
			break
		}
		b.WriteRune(r)
		width += w
	}
	return b.String()
}

// padRight pads a string with spaces to the given display width.
func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// orAll renders an empty filter value.
func orAll(value string) string {
	if value == "" {
		return "All"
	}
	return value
}

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/songdeck/internal/catalog"
)

const (
	defaultTableRows = 20
	notesPanelLines  = 5
	noteMarker       = "✎"
)

// tableRows is the number of song rows that fit on screen.
func (m Model) tableRows() int {
	if m.height <= 0 {
		return defaultTableRows
	}
	// header, filter bar, column header, pick line, footer
	rows := m.height - 5
	if m.showNotes {
		rows -= notesPanelLines
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m Model) renderWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m Model) renderLoading() string {
	styles := m.theme.Styles()
	return fmt.Sprintf("\n  %s %s\n", m.spinner.View(), styles.MutedText.Render("Loading songs..."))
}

func (m Model) renderLoadError() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(styles.DangerText.Render("Could not load songs."))
	b.WriteString("\n\n  ")
	b.WriteString(styles.MutedText.Render(m.loadErr.Error()))
	b.WriteString("\n\n  ")
	b.WriteString(styles.FaintText.Render("Press q to quit."))
	b.WriteString("\n")
	return b.String()
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderFilterBar())
	b.WriteString("\n")
	b.WriteString(m.renderTable())
	if m.showNotes {
		b.WriteString(m.renderNotes())
		b.WriteString("\n")
	}
	b.WriteString(m.renderPick())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	segments := []string{
		styles.Logo.Render("songdeck"),
		styles.Text.Render(fmt.Sprintf("%d of %d songs", len(m.view), m.catalog.Len())),
		styles.AccentText.Render("T") + styles.FaintText.Render(" "+m.theme.Name),
	}
	return styles.Header.Width(m.renderWidth()).Render(strings.Join(segments, "  "))
}

func (m Model) renderFilterBar() string {
	styles := m.theme.Styles()
	if m.searching {
		return " " + m.searchInput.View()
	}
	search := m.filter.TitleQuery
	if strings.TrimSpace(search) == "" {
		search = "-"
	}
	parts := []string{
		styles.AccentText.Render("L") + styles.MutedText.Render(" Language: ") + styles.Text.Render(orAll(m.filter.Language)),
		styles.AccentText.Render("B") + styles.MutedText.Render(" Band: ") + styles.Text.Render(truncate(orAll(m.filter.Band), 30)),
		styles.AccentText.Render("/") + styles.MutedText.Render(" Title: ") + styles.Text.Render(search),
	}
	return " " + strings.Join(parts, "   ")
}

// columnWidths splits the width between band and title, band first.
func (m Model) columnWidths() (int, int) {
	usable := m.renderWidth() - 6 // cursor, gap, note marker
	if usable < 20 {
		usable = 20
	}
	band := usable * 45 / 100
	return band, usable - band
}

func (m Model) headerLabel(label string, k catalog.SortKey) string {
	if ind := m.sort.Indicator(k); ind != "" {
		return label + " " + ind
	}
	return label
}

func (m Model) renderTable() string {
	styles := m.theme.Styles()
	bandW, titleW := m.columnWidths()

	var b strings.Builder
	header := "  " + padRight(m.headerLabel("Band", catalog.SortByBand), bandW) + "  " + m.headerLabel("Title", catalog.SortByTitle)
	b.WriteString(styles.ColumnHeader.Render(header))
	b.WriteString("\n")

	rows := m.tableRows()
	if len(m.view) == 0 {
		b.WriteString(styles.MutedText.Render("  No songs match the current filters."))
		b.WriteString(strings.Repeat("\n", rows))
		return b.String()
	}

	end := min(m.offset+rows, len(m.view))
	for i := m.offset; i < end; i++ {
		song := m.view[i]
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		marker := " "
		if song.HasNotes() {
			marker = noteMarker
		}
		line := cursor + padRight(truncate(song.Band, bandW), bandW) + "  " + padRight(truncate(song.Title, titleW), titleW) + " " + marker

		style := styles.Row
		switch {
		case i == m.selected:
			style = styles.Selected
		case (i-m.offset)%2 == 1:
			style = styles.RowAlt
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("\n", rows-(end-m.offset)))
	return b.String()
}

func (m Model) selectedSong() (catalog.Song, bool) {
	if m.selected < 0 || m.selected >= len(m.view) {
		return catalog.Song{}, false
	}
	return m.view[m.selected], true
}

func (m Model) renderNotes() string {
	styles := m.theme.Styles()
	song, ok := m.selectedSong()
	if !ok {
		return styles.Panel.Width(m.renderWidth() - 2).Render(styles.MutedText.Render("Nothing selected."))
	}
	notes := song.Notes
	if strings.TrimSpace(notes) == "" {
		notes = "No notes."
	}
	width := m.renderWidth() - 6
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.AccentText.Render(truncate(song.Title, width)),
		styles.Text.Render(truncate(notes, width)),
		styles.InfoText.Render(truncate(song.URL, width)),
	)
	return styles.Panel.Width(m.renderWidth() - 2).Render(body)
}

func (m Model) renderPick() string {
	styles := m.theme.Styles()
	switch {
	case m.status != "":
		return " " + styles.WarningText.Render(m.status)
	case m.picked != nil:
		line := fmt.Sprintf("%s - %s", m.picked.Band, m.picked.Title)
		return " " + styles.MutedText.Render("Random: ") + styles.SuccessText.Render(truncate(line, m.renderWidth()-10))
	default:
		return " " + styles.FaintText.Render("Press r for a random song.")
	}
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var parts []string
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, styles.AccentText.Render(h.Key)+" "+h.Desc)
	}
	return styles.Footer.Width(m.renderWidth()).Render(strings.Join(parts, "  "))
}

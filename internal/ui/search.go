package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleSearchInput handles keyboard input while the title search is
// focused. Typing refilters after a short pause; enter applies at once.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.searching = false
		m.searchInput.Blur()
		m.searchSeq++
		m.setTitleQuery(m.searchInput.Value())
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.searchSeq++
		m.setTitleQuery("")
		return m, nil
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() == before {
		return m, cmd
	}
	m.searchSeq++
	return m, tea.Batch(cmd, searchDebounceCmd(m.searchSeq))
}

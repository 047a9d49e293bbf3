package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// Filters
	Language key.Binding
	Band     key.Binding
	Search   key.Binding

	// Sorting
	SortBand  key.Binding
	SortTitle key.Binding

	// Random
	Random       key.Binding
	ResetHistory key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Details
	Notes key.Binding

	// Search/input
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Clear filters"),
		),

		Language: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Cycle language"),
		),
		Band: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "Cycle band"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search titles"),
		),

		SortBand: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Sort by band"),
		),
		SortTitle: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Sort by title"),
		),

		Random: key.NewBinding(
			key.WithKeys("r", " "),
			key.WithHelp("r/space", "Random song"),
		),
		ResetHistory: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Reset random history"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdown", "Page down"),
		),

		Notes: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Show notes"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Language, k.Band, k.Search, k.Random, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Language, k.Band, k.Search, k.Escape},
		{k.SortBand, k.SortTitle},
		{k.Random, k.ResetHistory, k.Notes},
		{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown},
		{k.CycleTheme, k.Help, k.Quit},
	}
}

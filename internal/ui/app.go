package ui

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/songdeck/internal/catalog"
	"github.com/five82/songdeck/internal/picker"
	"github.com/five82/songdeck/internal/prefs"
	"github.com/five82/songdeck/internal/source"
	"github.com/five82/songdeck/internal/state"
)

const searchDebounce = 300 * time.Millisecond

// Options configures the UI.
type Options struct {
	Context   context.Context
	Loader    source.Loader
	Store     *state.Store
	Picker    *picker.Picker
	Sorter    *catalog.Sorter
	ThemeName string
	Sort      catalog.SortState
	PrefsPath string
	Logger    *zap.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	loader    source.Loader
	store     *state.Store
	picker    *picker.Picker
	sorter    *catalog.Sorter
	prefsPath string
	logger    *zap.Logger
	keys      keyMap

	// UI state
	theme     Theme
	width     int
	height    int
	spinner   spinner.Model
	showHelp  bool
	showNotes bool

	// Search
	searching   bool
	searchInput textinput.Model
	searchSeq   int

	// Data state
	loading bool
	loadErr error
	catalog *catalog.Store
	filter  catalog.FilterState
	sort    catalog.SortState
	view    []catalog.Song
	langs   []string
	bands   []string

	// Table state
	selected int
	offset   int

	// Random pick
	picked *catalog.Song
	status string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	sortState := opts.Sort
	if sortState.Key == "" || sortState.Direction == "" {
		sortState = catalog.DefaultSortState()
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}

	pick := opts.Picker
	if pick == nil {
		pick = picker.New(picker.Options{Logger: logger})
	}

	sorter := opts.Sorter
	if sorter == nil {
		sorter = catalog.NewSorter(catalog.DefaultLanguage)
	}

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "Search titles..."
	ti.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:         ctx,
		loader:      opts.Loader,
		store:       store,
		picker:      pick,
		sorter:      sorter,
		prefsPath:   opts.PrefsPath,
		logger:      logger,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(themeName),
		spinner:     sp,
		searchInput: ti,
		loading:     true,
		sort:        sortState,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadCmd(m.ctx, m.loader, m.store))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampSelection()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case searchDebounceMsg:
		if msg.seq != m.searchSeq {
			return m, nil
		}
		m.setTitleQuery(m.searchInput.Value())
		return m, nil

	case pickedMsg:
		m.applyPick(msg)
		return m, nil

	case historyResetMsg:
		if msg.err != nil {
			m.status = "Could not reset random history"
		} else {
			m.status = "Random history cleared"
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.loading {
		return m.renderLoading()
	}
	if m.loadErr != nil {
		return m.renderLoadError()
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.searching {
		return m.handleSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil
	}

	// Everything below needs a loaded catalog.
	if m.catalog == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Language):
		m.cycleLanguage()
	case key.Matches(msg, m.keys.Band):
		m.cycleBand()
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.searchInput.SetValue(m.filter.TitleQuery)
		m.searchInput.CursorEnd()
		cmd := m.searchInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Escape):
		m.filter = catalog.FilterState{}
		m.searchInput.SetValue("")
		m.refresh()
	case key.Matches(msg, m.keys.SortBand):
		m.toggleSort(catalog.SortByBand)
	case key.Matches(msg, m.keys.SortTitle):
		m.toggleSort(catalog.SortByTitle)
	case key.Matches(msg, m.keys.Random):
		return m, pickCmd(m.ctx, m.picker, m.view, m.catalog.View(catalog.FilterState{}))
	case key.Matches(msg, m.keys.ResetHistory):
		return m, resetHistoryCmd(m.ctx, m.picker)
	case key.Matches(msg, m.keys.Notes):
		m.showNotes = !m.showNotes
	default:
		m.handleNavigation(msg)
	}
	return m, nil
}

func (m *Model) handleNavigation(msg tea.KeyMsg) {
	count := len(m.view)
	if count == 0 {
		return
	}
	page := m.tableRows()
	switch {
	case key.Matches(msg, m.keys.Down):
		m.selected++
	case key.Matches(msg, m.keys.Up):
		m.selected--
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = count - 1
	case key.Matches(msg, m.keys.PageDown):
		m.selected += page
	case key.Matches(msg, m.keys.PageUp):
		m.selected -= page
	default:
		return
	}
	m.clampSelection()
}

// applySnapshot installs the outcome of the initial load.
func (m *Model) applySnapshot(snap state.Snapshot) {
	m.loading = false
	if !snap.Loaded {
		m.loadErr = snap.LastError
		if m.loadErr == nil {
			m.loadErr = errors.New("no songs were loaded")
		}
		m.logger.Warn("catalog load failed", zap.Error(m.loadErr))
		return
	}
	m.catalog = catalog.NewStore(snap.Songs)
	m.catalog.Sort(m.sorter, m.sort)
	m.refresh()
	m.logger.Info("catalog loaded", zap.Int("songs", m.catalog.Len()), zap.Int("visible", len(m.view)))
}

// refresh recomputes options and the visible rows from the filter.
func (m *Model) refresh() {
	if m.catalog == nil {
		return
	}
	m.langs = m.catalog.LanguageOptions()
	m.bands = m.catalog.BandOptions(m.filter)
	m.view = m.catalog.View(m.filter)
	m.clampSelection()
}

func (m *Model) cycleLanguage() {
	m.filter.Language = nextOption(m.langs, m.filter.Language)
	bands := m.catalog.BandOptions(m.filter)
	if m.filter.Band != "" && !slices.Contains(bands, m.filter.Band) {
		m.filter.Band = ""
	}
	m.refresh()
}

func (m *Model) cycleBand() {
	m.filter.Band = nextOption(m.bands, m.filter.Band)
	m.refresh()
}

func (m *Model) toggleSort(k catalog.SortKey) {
	m.sort = m.sort.Toggle(k)
	m.catalog.Sort(m.sorter, m.sort)
	m.refresh()
	m.savePrefs()
}

func (m *Model) setTitleQuery(query string) {
	if m.filter.TitleQuery == query {
		return
	}
	m.filter.TitleQuery = query
	m.selected = 0
	m.refresh()
}

func (m *Model) applyPick(msg pickedMsg) {
	if !msg.ok {
		m.picked = nil
		m.status = "No songs match the current filters"
		return
	}
	song := msg.song
	m.picked = &song
	m.status = ""
	for i, s := range m.view {
		if s == song {
			m.selected = i
			break
		}
	}
	m.clampSelection()
}

func (m *Model) clampSelection() {
	count := len(m.view)
	if m.selected >= count {
		m.selected = count - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	rows := m.tableRows()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+rows {
		m.offset = m.selected - rows + 1
	}
	if m.offset > count-rows {
		m.offset = count - rows
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name}.WithSortState(m.sort)
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save preferences", zap.Error(err))
	}
}

// nextOption cycles "" (all) -> options[0] -> ... -> options[n-1] -> "".
func nextOption(options []string, current string) string {
	if current == "" {
		if len(options) == 0 {
			return ""
		}
		return options[0]
	}
	i := slices.Index(options, current)
	if i < 0 || i == len(options)-1 {
		return ""
	}
	return options[i+1]
}

// Messages

type loadedMsg state.Snapshot

type searchDebounceMsg struct{ seq int }

type pickedMsg struct {
	song catalog.Song
	ok   bool
}

type historyResetMsg struct{ err error }

// Commands

func loadCmd(ctx context.Context, loader source.Loader, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		if loader == nil {
			store.Update(nil, errors.New("no catalog source configured"))
			return loadedMsg(store.Snapshot())
		}
		songs, err := loader.FetchSongs(ctx)
		store.Update(songs, err)
		return loadedMsg(store.Snapshot())
	}
}

func pickCmd(ctx context.Context, p *picker.Picker, view, all []catalog.Song) tea.Cmd {
	return func() tea.Msg {
		song, ok := p.Pick(ctx, view, all)
		return pickedMsg{song: song, ok: ok}
	}
}

func resetHistoryCmd(ctx context.Context, p *picker.Picker) tea.Cmd {
	return func() tea.Msg {
		return historyResetMsg{err: p.Reset(ctx)}
	}
}

func searchDebounceCmd(seq int) tea.Cmd {
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{seq: seq}
	})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}

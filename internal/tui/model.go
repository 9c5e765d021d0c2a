package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/cj3636/difflight/internal/config"
	"github.com/cj3636/difflight/internal/highlight"
	"github.com/cj3636/difflight/internal/render"
	"github.com/cj3636/difflight/internal/source"
	"github.com/cj3636/difflight/internal/watch"
	"github.com/mattn/go-runewidth"
)

// loadTimeout bounds a single document load.
const loadTimeout = 30 * time.Second

// chromeHeight is the number of rows used by tabs, title and status bar.
const chromeHeight = 3

// Model represents the application state
type Model struct {
	tabs      []*tab
	active    int
	config    *config.Config
	keys      KeyMap
	styles    *Styles
	annotator highlight.Annotator[lipgloss.Style]
	renderer  render.Renderer
	viewport  Viewport
	width     int
	height    int
	showHelp  bool
	showStats bool
	changes   <-chan watch.Event
}

// Viewport controls the visible portion of the diff
type Viewport struct {
	offset int // Current scroll position
	height int // Available height for content
}

// Styles holds the lipgloss styles for the viewer chrome. Diff lines are
// styled by the render package.
type Styles struct {
	title       lipgloss.Style
	statusBar   lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	panel       lipgloss.Style
	errorText   lipgloss.Style
	unchanged   lipgloss.Style
}

// Option configures a Model.
type Option func(*Model)

// WithChanges reloads every tab whenever an event arrives on ch.
func WithChanges(ch <-chan watch.Event) Option {
	return func(m *Model) { m.changes = ch }
}

// NewModel creates a viewer with one tab per loader.
func NewModel(cfg *config.Config, loaders []source.Loader, opts ...Option) (Model, error) {
	annotator, err := render.NewAnnotator(cfg)
	if err != nil {
		return Model{}, err
	}
	m := Model{
		config:    cfg,
		keys:      NewKeyMap(cfg.Keybindings),
		styles:    createStyles(cfg.Theme),
		annotator: annotator,
		renderer:  render.New(cfg),
		viewport:  Viewport{offset: 0, height: 20},
	}
	for _, l := range loaders {
		t := &tab{loader: l, loading: true}
		if g, ok := l.(source.Git); ok {
			t.title = g.Title()
		}
		m.tabs = append(m.tabs, t)
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m, nil
}

// createStyles initializes the chrome styles based on theme
func createStyles(theme config.Theme) *Styles {
	return &Styles{
		title: lipgloss.NewStyle().
			Foreground(theme.TitleFg).
			Background(theme.TitleBg).
			Bold(true).
			Padding(0, 1),
		statusBar: lipgloss.NewStyle().
			Foreground(theme.TitleFg).
			Background(theme.TitleBg).
			Padding(0, 1),
		tabActive: lipgloss.NewStyle().
			Foreground(theme.TitleFg).
			Background(theme.TitleBg).
			Padding(0, 1).
			Bold(true),
		tabInactive: lipgloss.NewStyle().
			Foreground(theme.HelpFg).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Foreground(theme.HelpFg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.BorderFg).
			Padding(0, 1),
		errorText: lipgloss.NewStyle().
			Foreground(theme.RemovedFg).
			Bold(true),
		unchanged: lipgloss.NewStyle().
			Foreground(theme.UnchangedFg),
	}
}

// loadedMsg carries the result of loading and annotating one tab.
type loadedMsg struct {
	index int
	doc   source.Document
	ann   render.Annotation
	err   error
}

// changedMsg reports a file system change from the watcher.
type changedMsg watch.Event

// changesClosedMsg reports that the watcher stopped.
type changesClosedMsg struct{}

// Init loads every tab and starts listening for changes
func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.tabs)+1)
	for i := range m.tabs {
		cmds = append(cmds, m.load(i))
	}
	cmds = append(cmds, m.waitForChange())
	return tea.Batch(cmds...)
}

// load loads and annotates tab i off the UI goroutine.
func (m Model) load(i int) tea.Cmd {
	loader := m.tabs[i].loader
	annotator := m.annotator
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		doc, err := loader.Load(ctx)
		if err != nil {
			return loadedMsg{index: i, err: err}
		}
		return loadedMsg{index: i, doc: doc, ann: annotator.Annotate(doc.Text)}
	}
}

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return changesClosedMsg{}
		}
		return changedMsg(ev)
	}
}

func (m *Model) reloadAll() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.tabs))
	for i, t := range m.tabs {
		t.loading = true
		cmds = append(cmds, m.load(i))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelDown:
			m.scrollDown()
		case tea.MouseButtonWheelUp:
			m.scrollUp()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewportHeight()

	case loadedMsg:
		if msg.index < 0 || msg.index >= len(m.tabs) {
			return m, nil
		}
		t := m.tabs[msg.index]
		t.loading = false
		if msg.err != nil {
			t.err = msg.err
			return m, nil
		}
		if msg.doc.Title != "" {
			t.title = msg.doc.Title
		}
		t.setAnnotation(msg.ann)
		m.rerender(t)
		if msg.index == m.active {
			m.clampOffset()
		}

	case changedMsg:
		return m, tea.Batch(m.reloadAll(), m.waitForChange())

	case changesClosedMsg:
		m.changes = nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleHelp):
		m.showHelp = !m.showHelp
		// Close stats if opening help
		if m.showHelp {
			m.showStats = false
		}
		m.updateViewportHeight()
	case key.Matches(msg, m.keys.ToggleStats):
		m.showStats = !m.showStats
		// Close help if opening stats
		if m.showStats {
			m.showHelp = false
		}
		m.updateViewportHeight()
	case key.Matches(msg, m.keys.ToggleInline):
		m.renderer.Inline = !m.renderer.Inline
		m.rerenderAll()
	case key.Matches(msg, m.keys.ToggleColor):
		m.renderer.Color = !m.renderer.Color
		m.rerenderAll()
	case key.Matches(msg, m.keys.ToggleLineNumbers):
		m.renderer.LineNumbers = !m.renderer.LineNumbers
		m.rerenderAll()
	case key.Matches(msg, m.keys.NextHunk):
		if t := m.activeTab(); t != nil {
			if h := t.nextHunk(m.viewport.offset); h >= 0 {
				m.viewport.offset = min(h, m.maxOffset())
			}
		}
	case key.Matches(msg, m.keys.PrevHunk):
		if t := m.activeTab(); t != nil {
			if h := t.prevHunk(m.viewport.offset); h >= 0 {
				m.viewport.offset = h
			}
		}
	case key.Matches(msg, m.keys.ScrollDown):
		m.scrollDown()
	case key.Matches(msg, m.keys.ScrollUp):
		m.scrollUp()
	case key.Matches(msg, m.keys.PageDown):
		m.scrollPageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.scrollPageUp()
	case key.Matches(msg, m.keys.GoTop):
		m.scrollToTop()
	case key.Matches(msg, m.keys.GoBottom):
		m.scrollToBottom()
	case key.Matches(msg, m.keys.NextTab):
		m.nextTab()
	case key.Matches(msg, m.keys.PrevTab):
		m.prevTab()
	case key.Matches(msg, m.keys.Reload):
		return m, m.reloadAll()
	}
	return m, nil
}

// rerender rebuilds the cached lines of t from its annotation.
func (m *Model) rerender(t *tab) {
	if !t.loaded {
		return
	}
	t.lines = m.renderer.Document(t.ann)
}

func (m *Model) rerenderAll() {
	for _, t := range m.tabs {
		m.rerender(t)
	}
}

// View renders the UI
func (m Model) View() string {
	t := m.activeTab()
	if t == nil {
		return "No diff to display\n"
	}

	var sections []string

	// Tabs and title
	sections = append(sections, m.renderTabs())
	sections = append(sections, m.renderTitle())

	// Main diff content (always shown)
	sections = append(sections, m.renderDiff())

	// Bottom panel (help or stats) - shown below main view if toggled
	if m.showHelp {
		sections = append(sections, m.renderHelpPanel())
	} else if m.showStats {
		sections = append(sections, m.renderStatsPanel())
	}

	// Status bar
	sections = append(sections, m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTitle renders the title bar
func (m Model) renderTitle() string {
	title := "difflight: " + m.activeTab().title
	if m.width > 0 {
		title = runewidth.Truncate(title, max(m.width-2, 1), "…")
	}
	return m.styles.title.Render(title)
}

// renderTabs renders the list of open diffs
func (m Model) renderTabs() string {
	var tabs []string
	for i, t := range m.tabs {
		name := t.title
		if name == "" {
			name = "loading"
		}
		label := fmt.Sprintf("%d:%s", i+1, runewidth.Truncate(name, 22, "…"))
		if i == m.active {
			tabs = append(tabs, m.styles.tabActive.Render(label))
		} else {
			tabs = append(tabs, m.styles.tabInactive.Render(label))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Left, tabs...)
}

// renderDiff renders the visible window of the active diff
func (m Model) renderDiff() string {
	t := m.activeTab()
	switch {
	case t.err != nil && !t.loaded:
		return m.styles.errorText.Render("Error: " + t.err.Error())
	case !t.loaded:
		return m.styles.unchanged.Render("Loading…")
	case len(t.lines) == 0:
		return m.styles.unchanged.Render("No differences found.")
	}

	start := min(m.viewport.offset, len(t.lines))
	end := min(start+m.viewport.height, len(t.lines))

	lines := make([]string, 0, end-start)
	for _, line := range t.lines[start:end] {
		if m.width > 0 {
			line = ansi.Truncate(line, m.width, "…")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// renderStatusBar renders the status bar
func (m Model) renderStatusBar() string {
	t := m.activeTab()
	s := t.ann.Summary

	inline := onOff(m.renderer.Inline)
	if m.renderer.Inline && (s.Inline.Truncated || s.Inline.SkippedBlocks > 0 || s.Inline.SkippedPairs > 0) {
		inline = "partial"
	}

	state := ""
	switch {
	case t.loading:
		state = " | reloading"
	case t.err != nil:
		state = " | reload failed"
	}

	status := fmt.Sprintf(
		"Tab %d/%d%s | Lines: +%d -%d =%d | Hunks: %d | Pos: %d/%d | Inline: %s | Color: %s | ?:help q:quit",
		m.active+1, len(m.tabs), state,
		s.Added, s.Removed, s.Context,
		s.Hunks,
		m.viewport.offset+1, len(t.lines),
		inline, onOff(m.renderer.Color),
	)
	if m.width > 0 {
		status = runewidth.Truncate(status, max(m.width-2, 1), "…")
	}

	return m.styles.statusBar.Width(m.width).Render(status)
}

// renderHelpPanel renders the key bindings in three columns
func (m Model) renderHelpPanel() string {
	const columns = 3
	const keyWidth, descWidth = 12, 20

	bindings := m.keys.Bindings()
	rows := (len(bindings) + columns - 1) / columns

	helpText := []string{"Keyboard Shortcuts:"}
	for r := 0; r < rows; r++ {
		var cells []string
		for c := 0; c < columns; c++ {
			i := c*rows + r
			if i >= len(bindings) {
				break
			}
			h := bindings[i].Help()
			cells = append(cells, runewidth.FillRight(runewidth.Truncate(h.Key, keyWidth, "…"), keyWidth)+
				runewidth.FillRight(h.Desc, descWidth))
		}
		helpText = append(helpText, "  "+strings.Join(cells, "│  "))
	}

	return m.styles.panel.Width(max(m.width-2, 0)).Render(strings.Join(helpText, "\n"))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100.0 / float64(total)
}

// renderStatsPanel renders the statistics panel below the main view
func (m Model) renderStatsPanel() string {
	s := m.activeTab().ann.Summary
	total := s.Added + s.Removed + s.Context
	in := s.Inline

	statsText := []string{
		"Diff Statistics",
		"═══════════════",
		fmt.Sprintf("Total: %d lines  │  Added: %d (%.1f%%)  │  Removed: %d (%.1f%%)  │  Context: %d (%.1f%%)",
			total,
			s.Added, percent(s.Added, total),
			s.Removed, percent(s.Removed, total),
			s.Context, percent(s.Context, total)),
		fmt.Sprintf("Hunks: %d  │  Lines with inline spans: %d", s.Hunks, s.InlineLines),
		fmt.Sprintf("Changed blocks: %d (%d skipped)  │  Line pairs: %d (%d skipped)  │  Truncated: %s",
			in.Blocks, in.SkippedBlocks, in.Pairs, in.SkippedPairs, onOff(in.Truncated)),
	}

	return m.styles.panel.Width(max(m.width-2, 0)).Render(strings.Join(statsText, "\n"))
}

func (m Model) activeTab() *tab {
	if m.active < 0 || m.active >= len(m.tabs) {
		return nil
	}
	return m.tabs[m.active]
}

func (m *Model) resetViewport() {
	m.viewport.offset = 0
}

func (m *Model) nextTab() {
	if len(m.tabs) == 0 {
		return
	}
	m.active = (m.active + 1) % len(m.tabs)
	m.resetViewport()
}

func (m *Model) prevTab() {
	if len(m.tabs) == 0 {
		return
	}
	m.active = (m.active - 1 + len(m.tabs)) % len(m.tabs)
	m.resetViewport()
}

// Scroll functions
func (m Model) maxOffset() int {
	t := m.activeTab()
	if t == nil {
		return 0
	}
	return max(0, len(t.lines)-m.viewport.height)
}

func (m *Model) clampOffset() {
	m.viewport.offset = max(0, min(m.viewport.offset, m.maxOffset()))
}

func (m *Model) scrollDown() {
	if m.viewport.offset < m.maxOffset() {
		m.viewport.offset++
	}
}

func (m *Model) scrollUp() {
	if m.viewport.offset > 0 {
		m.viewport.offset--
	}
}

func (m *Model) scrollPageDown() {
	halfPage := max(m.viewport.height/2, 1)
	m.viewport.offset = min(m.viewport.offset+halfPage, m.maxOffset())
}

func (m *Model) scrollPageUp() {
	halfPage := max(m.viewport.height/2, 1)
	m.viewport.offset = max(m.viewport.offset-halfPage, 0)
}

func (m *Model) scrollToTop() {
	m.viewport.offset = 0
}

func (m *Model) scrollToBottom() {
	m.viewport.offset = m.maxOffset()
}

// updateViewportHeight calculates and sets the viewport height based on screen size and active panels
func (m *Model) updateViewportHeight() {
	baseHeight := m.height - chromeHeight

	// Subtract panel height if help or stats is shown
	if m.activeTab() != nil {
		if m.showHelp {
			baseHeight -= lipgloss.Height(m.renderHelpPanel())
		} else if m.showStats {
			baseHeight -= lipgloss.Height(m.renderStatsPanel())
		}
	}

	// Ensure minimum height
	m.viewport.height = max(baseHeight, 5)
	m.clampOffset()
}

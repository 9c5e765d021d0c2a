package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/cj3636/difflight/internal/config"
	"github.com/cj3636/difflight/internal/source"
	"github.com/cj3636/difflight/internal/watch"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shortDiff = `--- a/f.txt
+++ b/f.txt
@@ -1 +1 @@
-hello world
+hello World
`

// longDiff has 38 lines with hunk headers at 2, 14 and 26.
func longDiff() string {
	var b strings.Builder
	b.WriteString("--- a/f\n+++ b/f\n")
	for h := 0; h < 3; h++ {
		fmt.Fprintf(&b, "@@ -%d,10 +%d,10 @@\n", h*20+1, h*20+1)
		for i := 0; i < 9; i++ {
			fmt.Fprintf(&b, " line %d\n", i)
		}
		b.WriteString("-old\n+new\n")
	}
	return b.String()
}

type failingLoader struct{}

func (failingLoader) Load(_ context.Context) (source.Document, error) {
	return source.Document{}, errors.New("boom")
}

func withTrueColor(t *testing.T) {
	t.Helper()
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.TrueColor)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// loaded builds a model sized to 80x10 with every tab loaded.
func loaded(t *testing.T, cfg *config.Config, loaders ...source.Loader) Model {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	m, err := NewModel(cfg, loaders)
	require.NoError(t, err)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 10})
	for i := range m.tabs {
		m, _ = update(t, m, m.load(i)())
	}
	return m
}

func static(title, text string) source.Loader {
	return source.Static{Title: title, Text: text}
}

func TestNewModel_InvalidInline(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Inline.Threshold = -1
	_, err := NewModel(cfg, nil)
	require.Error(t, err)
}

func TestModel_Load(t *testing.T) {
	m := loaded(t, nil, static("one.patch", shortDiff))

	tb := m.activeTab()
	require.True(t, tb.loaded)
	assert.False(t, tb.loading)
	assert.Equal(t, "one.patch", tb.title)
	assert.Len(t, tb.lines, 5)
	assert.Equal(t, []int{2}, tb.hunks)
	assert.Equal(t, 1, tb.ann.Summary.Added)
	assert.Equal(t, 2, tb.ann.Summary.InlineLines)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "difflight: one.patch")
	assert.Contains(t, view, "-hello world")
	assert.Contains(t, view, "Lines: +1 -1 =0")
}

func TestModel_LoadError(t *testing.T) {
	m := loaded(t, nil, failingLoader{})
	assert.Contains(t, ansi.Strip(m.View()), "Error: boom")
}

func TestModel_ReloadFailureKeepsContent(t *testing.T) {
	m := loaded(t, nil, static("one", shortDiff))
	m, _ = update(t, m, loadedMsg{index: 0, err: errors.New("gone")})

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "hello World")
	assert.Contains(t, view, "reload failed")
}

func TestModel_Scrolling(t *testing.T) {
	m := loaded(t, nil, static("long", longDiff()))
	require.Equal(t, 7, m.viewport.height)

	m, _ = update(t, m, keyMsg("j"))
	assert.Equal(t, 1, m.viewport.offset)
	m, _ = update(t, m, keyMsg("k"))
	m, _ = update(t, m, keyMsg("k"))
	assert.Equal(t, 0, m.viewport.offset)

	m, _ = update(t, m, keyMsg("d"))
	assert.Equal(t, 3, m.viewport.offset)
	m, _ = update(t, m, keyMsg("u"))
	assert.Equal(t, 0, m.viewport.offset)

	m, _ = update(t, m, keyMsg("G"))
	assert.Equal(t, 31, m.viewport.offset)
	m, _ = update(t, m, keyMsg("j"))
	assert.Equal(t, 31, m.viewport.offset)

	m, _ = update(t, m, tea.MouseMsg{Button: tea.MouseButtonWheelUp})
	assert.Equal(t, 30, m.viewport.offset)

	m, _ = update(t, m, keyMsg("g"))
	assert.Equal(t, 0, m.viewport.offset)
}

func TestModel_HunkNavigation(t *testing.T) {
	m := loaded(t, nil, static("long", longDiff()))

	var offsets []int
	for i := 0; i < 4; i++ {
		m, _ = update(t, m, keyMsg("n"))
		offsets = append(offsets, m.viewport.offset)
	}
	assert.Equal(t, []int{2, 14, 26, 26}, offsets)

	m, _ = update(t, m, keyMsg("N"))
	assert.Equal(t, 14, m.viewport.offset)

	m, _ = update(t, m, keyMsg("G"))
	m, _ = update(t, m, keyMsg("N"))
	assert.Equal(t, 26, m.viewport.offset)
}

func TestModel_Toggles(t *testing.T) {
	withTrueColor(t)
	m := loaded(t, nil, static("one", shortDiff))
	require.Contains(t, m.activeTab().lines[3], "\x1b[")

	m, _ = update(t, m, keyMsg("c"))
	assert.False(t, m.renderer.Color)
	assert.Equal(t, "    1       -hello world", m.activeTab().lines[3])

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.False(t, m.renderer.LineNumbers)
	assert.Equal(t, "-hello world", m.activeTab().lines[3])

	m, _ = update(t, m, keyMsg("c"))
	withInline := m.activeTab().lines[3]
	m, _ = update(t, m, keyMsg("i"))
	assert.False(t, m.renderer.Inline)
	assert.NotEqual(t, withInline, m.activeTab().lines[3])
	assert.Equal(t, "-hello world", ansi.Strip(m.activeTab().lines[3]))
	assert.Contains(t, ansi.Strip(m.View()), "Inline: off")
}

func TestModel_Panels(t *testing.T) {
	m := loaded(t, nil, static("long", longDiff()))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	full := m.viewport.height

	m, _ = update(t, m, keyMsg("?"))
	assert.True(t, m.showHelp)
	assert.Less(t, m.viewport.height, full)
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Keyboard Shortcuts:")
	assert.Contains(t, view, "Next hunk")

	m, _ = update(t, m, keyMsg("s"))
	assert.True(t, m.showStats)
	assert.False(t, m.showHelp)
	view = ansi.Strip(m.View())
	assert.Contains(t, view, "Diff Statistics")
	assert.Contains(t, view, "Hunks: 3")
	assert.Contains(t, view, "Changed blocks: 3 (0 skipped)")

	m, _ = update(t, m, keyMsg("s"))
	assert.Equal(t, full, m.viewport.height)
}

func TestModel_Tabs(t *testing.T) {
	m := loaded(t, nil, static("one", shortDiff), static("two", longDiff()))
	m, _ = update(t, m, keyMsg("j"))

	m, _ = update(t, m, keyMsg("tab"))
	assert.Equal(t, 1, m.active)
	assert.Equal(t, 0, m.viewport.offset)
	m, _ = update(t, m, keyMsg("tab"))
	assert.Equal(t, 0, m.active)
	m, _ = update(t, m, keyMsg("shift+tab"))
	assert.Equal(t, 1, m.active)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "1:one")
	assert.Contains(t, view, "2:two")
	assert.Contains(t, view, "Tab 2/2")
}

func TestModel_Quit(t *testing.T) {
	m := loaded(t, nil, static("one", shortDiff))
	for _, k := range []string{"q", "ctrl+c"} {
		_, cmd := update(t, m, keyMsg(k))
		require.NotNil(t, cmd, k)
		assert.IsType(t, tea.QuitMsg{}, cmd(), k)
	}
}

func TestModel_CustomKeybindings(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Keybindings = config.MergeKeybindings(config.Keybindings{"next_hunk": {"]"}})
	m := loaded(t, cfg, static("long", longDiff()))

	m, _ = update(t, m, keyMsg("n"))
	assert.Equal(t, 0, m.viewport.offset)
	m, _ = update(t, m, keyMsg("]"))
	assert.Equal(t, 2, m.viewport.offset)
}

func TestModel_ReloadOnChange(t *testing.T) {
	ch := make(chan watch.Event, 1)
	m, err := NewModel(config.DefaultConfig(), []source.Loader{static("one", shortDiff)}, WithChanges(ch))
	require.NoError(t, err)
	m, _ = update(t, m, m.load(0)())
	require.False(t, m.activeTab().loading)

	ch <- watch.Event{Paths: []string{"f.txt"}}
	msg := m.waitForChange()()
	assert.Equal(t, changedMsg{Paths: []string{"f.txt"}}, msg)

	m, cmd := update(t, m, msg)
	assert.NotNil(t, cmd)
	assert.True(t, m.activeTab().loading)

	close(ch)
	m, _ = update(t, m, m.waitForChange()())
	assert.Nil(t, m.changes)
	assert.Nil(t, m.waitForChange())
}

func TestModel_ReloadKey(t *testing.T) {
	m := loaded(t, nil, static("one", shortDiff))
	m, cmd := update(t, m, keyMsg("r"))
	require.NotNil(t, cmd)
	assert.True(t, m.activeTab().loading)
}

func TestModel_TruncatesToWidth(t *testing.T) {
	long := "--- a/f\n+++ b/f\n@@ -1 +1 @@\n-" + strings.Repeat("x", 200) + "\n+" + strings.Repeat("y", 200) + "\n"
	m := loaded(t, nil, static("wide", long))
	for _, line := range strings.Split(m.renderDiff(), "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 80)
	}
}

func TestNewKeyMap_FallsBackToDefaults(t *testing.T) {
	km := NewKeyMap(config.Keybindings{"quit": {"x"}})
	assert.Equal(t, []string{"x"}, km.Quit.Keys())
	assert.Equal(t, []string{"j", "down"}, km.ScrollDown.Keys())
	assert.Len(t, km.Bindings(), 17)
}

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/cj3636/difflight/internal/config"
)

// KeyMap holds the viewer's key bindings.
type KeyMap struct {
	Quit              key.Binding
	ToggleHelp        key.Binding
	ToggleStats       key.Binding
	ToggleInline      key.Binding
	ToggleColor       key.Binding
	ToggleLineNumbers key.Binding
	NextHunk          key.Binding
	PrevHunk          key.Binding
	ScrollDown        key.Binding
	ScrollUp          key.Binding
	PageDown          key.Binding
	PageUp            key.Binding
	GoTop             key.Binding
	GoBottom          key.Binding
	NextTab           key.Binding
	PrevTab           key.Binding
	Reload            key.Binding
}

// NewKeyMap builds bindings from the action map in kb. Actions missing from
// kb fall back to the defaults.
func NewKeyMap(kb config.Keybindings) KeyMap {
	var km KeyMap
	for _, a := range km.actions() {
		keys := kb[a.name]
		if len(keys) == 0 {
			keys = config.DefaultKeybindings()[a.name]
		}
		*a.binding = key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(strings.Join(keys, ", "), a.desc),
		)
	}
	return km
}

type action struct {
	name    string
	desc    string
	binding *key.Binding
}

// actions lists every binding in help order.
func (km *KeyMap) actions() []action {
	return []action{
		{"scroll_down", "Scroll down", &km.ScrollDown},
		{"scroll_up", "Scroll up", &km.ScrollUp},
		{"page_down", "Half page down", &km.PageDown},
		{"page_up", "Half page up", &km.PageUp},
		{"go_top", "Go to top", &km.GoTop},
		{"go_bottom", "Go to bottom", &km.GoBottom},
		{"next_hunk", "Next hunk", &km.NextHunk},
		{"prev_hunk", "Previous hunk", &km.PrevHunk},
		{"next_tab", "Next tab", &km.NextTab},
		{"prev_tab", "Previous tab", &km.PrevTab},
		{"toggle_inline", "Toggle inline spans", &km.ToggleInline},
		{"toggle_color", "Toggle colors", &km.ToggleColor},
		{"toggle_line_numbers", "Toggle line numbers", &km.ToggleLineNumbers},
		{"toggle_stats", "Toggle stats", &km.ToggleStats},
		{"toggle_help", "Toggle help", &km.ToggleHelp},
		{"reload", "Reload", &km.Reload},
		{"quit", "Quit", &km.Quit},
	}
}

// Bindings returns all bindings in help order.
func (km KeyMap) Bindings() []key.Binding {
	acts := km.actions()
	out := make([]key.Binding, len(acts))
	for i, a := range acts {
		out[i] = *a.binding
	}
	return out
}

package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/cj3636/difflight/internal/config"
	"github.com/cj3636/difflight/internal/highlight"
)

// Styles holds all the lipgloss styles used to draw a diff.
type Styles struct {
	Diff          highlight.Palette[lipgloss.Style]
	InlineAdded   lipgloss.Style
	InlineRemoved lipgloss.Style
	Unchanged     lipgloss.Style
	LineNumber    lipgloss.Style
}

// NewStyles derives diff styles from theme for the default renderer.
func NewStyles(theme config.Theme) Styles {
	return NewStylesFor(lipgloss.DefaultRenderer(), theme)
}

// NewStylesFor derives diff styles from theme bound to r, whose color profile
// decides the escape sequences emitted.
func NewStylesFor(r *lipgloss.Renderer, theme config.Theme) Styles {
	return Styles{
		Diff: highlight.Palette[lipgloss.Style]{
			Header: r.NewStyle().
				Foreground(theme.HeaderFg).
				Bold(true),
			FileMarker: r.NewStyle().
				Foreground(theme.FileMarkerFg).
				Bold(true),
			HunkHeader: r.NewStyle().
				Foreground(theme.HunkFg),
			HunkContext: r.NewStyle().
				Foreground(theme.HunkContextFg).
				Italic(true),
			MetaKey: r.NewStyle().
				Foreground(theme.MetaKeyFg),
			MetaValue: r.NewStyle().
				Foreground(theme.MetaValueFg),
			Added: r.NewStyle().
				Foreground(theme.AddedFg).
				Background(theme.AddedBg),
			Removed: r.NewStyle().
				Foreground(theme.RemovedFg).
				Background(theme.RemovedBg),
			Whitespace: r.NewStyle().
				Background(theme.WhitespaceBg),
		},
		InlineAdded: r.NewStyle().
			Background(theme.InlineAddedBg),
		InlineRemoved: r.NewStyle().
			Background(theme.InlineRemovedBg),
		Unchanged: r.NewStyle().
			Foreground(theme.UnchangedFg),
		LineNumber: r.NewStyle().
			Foreground(theme.LineNumberFg),
	}
}

// Annotator returns an annotator producing s.Diff styles. spans may be nil.
func (s Styles) Annotator(spans *highlight.SpanComputer) highlight.Annotator[lipgloss.Style] {
	return highlight.NewDiffAnnotator(s.Diff, spans)
}

// NewAnnotator builds the terminal annotator described by cfg.
func NewAnnotator(cfg *config.Config) (highlight.Annotator[lipgloss.Style], error) {
	spans, err := cfg.Inline.NewSpanComputer()
	if err != nil {
		return highlight.Annotator[lipgloss.Style]{}, err
	}
	return NewStyles(cfg.Theme).Annotator(spans), nil
}

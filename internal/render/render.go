package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cj3636/difflight/internal/config"
	"github.com/cj3636/difflight/internal/highlight"
)

// Line is an annotated diff line styled for the terminal.
type Line = highlight.AnnotatedLine[lipgloss.Style]

// Annotation is an annotated diff styled for the terminal.
type Annotation = highlight.Annotation[lipgloss.Style]

// Renderer turns annotated lines into terminal strings.
type Renderer struct {
	Styles      Styles
	TabSize     int
	Color       bool // Plain text when false
	Inline      bool // Overlay inline spans
	LineNumbers bool
	NumberWidth int
}

// New returns a Renderer configured from cfg with color and inline spans on.
func New(cfg *config.Config) Renderer {
	return Renderer{
		Styles:      NewStyles(cfg.Theme),
		TabSize:     cfg.TabSize,
		Color:       true,
		Inline:      cfg.Inline.Enabled,
		LineNumbers: cfg.ShowLineNo,
		NumberWidth: cfg.Spacing.LineNumberWidth,
	}
}

// Document renders every line of ann, one string per line.
func (r Renderer) Document(ann Annotation) []string {
	var nums []highlight.LineNo
	if r.LineNumbers {
		nums = highlight.LineNumbers(ann.Lines)
	}
	out := make([]string, len(ann.Lines))
	for i, l := range ann.Lines {
		var gutter string
		if r.LineNumbers {
			gutter = r.Gutter(nums[i])
		}
		out[i] = gutter + r.Line(l)
	}
	return out
}

// Gutter renders the old and new line number columns.
func (r Renderer) Gutter(n highlight.LineNo) string {
	width := max(r.NumberWidth, 1)
	col := func(v int) string {
		if v <= 0 {
			return strings.Repeat(" ", width)
		}
		return fmt.Sprintf("%*d", width, v)
	}
	text := col(n.Old) + " " + col(n.New)
	if r.Color {
		text = r.Styles.LineNumber.Render(text)
	}
	return text + " "
}

// Line renders a single annotated line.
func (r Renderer) Line(l Line) string {
	var b strings.Builder
	col := 0
	for _, seg := range l.Segments() {
		var text string
		text, col = expandTabs(seg.Text, col, r.TabSize)
		if !r.Color {
			b.WriteString(text)
			continue
		}
		b.WriteString(r.segmentStyle(l.Role, seg).Render(text))
	}
	return b.String()
}

// segmentStyle layers the rule styles of seg in order, each one keeping its own
// properties and inheriting the rest, then overlays the inline span style.
func (r Renderer) segmentStyle(role highlight.Role, seg highlight.Segment[lipgloss.Style]) lipgloss.Style {
	st := r.Styles.Unchanged
	if len(seg.Styles) > 0 {
		st = lipgloss.NewStyle()
	}
	for _, s := range seg.Styles {
		st = s.Inherit(st)
	}

	if r.Inline && seg.Inline {
		overlay := r.Styles.InlineAdded
		if role == highlight.RoleRemoved {
			overlay = r.Styles.InlineRemoved
		}
		if seg.Kind == highlight.Replaced {
			overlay = overlay.Underline(true)
		}
		st = overlay.Inherit(st)
	}
	return st
}

// expandTabs replaces tabs with spaces up to the next tab stop, starting at
// display column col. It returns the new column.
func expandTabs(s string, col, size int) (string, int) {
	if size <= 0 || !strings.Contains(s, "\t") {
		return s, col + len([]rune(s))
	}
	var b strings.Builder
	for _, r := range s {
		if r == '\t' {
			n := size - col%size
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String(), col
}

package tui

import (
	"github.com/cj3636/difflight/internal/highlight"
	"github.com/cj3636/difflight/internal/render"
	"github.com/cj3636/difflight/internal/source"
)

// tab is one diff document open in the viewer.
type tab struct {
	loader  source.Loader
	title   string
	ann     render.Annotation
	lines   []string // Rendered lines, rebuilt when display settings change
	hunks   []int    // Indices of hunk header lines
	loaded  bool
	loading bool
	err     error
}

func (t *tab) setAnnotation(ann render.Annotation) {
	t.ann = ann
	t.hunks = t.hunks[:0]
	for i, l := range ann.Lines {
		if l.Role == highlight.RoleHunk {
			t.hunks = append(t.hunks, i)
		}
	}
	t.loaded = true
	t.err = nil
}

// nextHunk returns the first hunk after line, or -1.
func (t *tab) nextHunk(line int) int {
	for _, h := range t.hunks {
		if h > line {
			return h
		}
	}
	return -1
}

// prevHunk returns the last hunk before line, or -1.
func (t *tab) prevHunk(line int) int {
	for i := len(t.hunks) - 1; i >= 0; i-- {
		if t.hunks[i] < line {
			return t.hunks[i]
		}
	}
	return -1
}

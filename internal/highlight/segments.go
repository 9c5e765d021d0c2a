package highlight

import "slices"

// Segment is a maximal run of a line covered by the same rule styles and
// inline span.
type Segment[S any] struct {
	Text       string
	Start, End int // Codepoint range within the line
	Styles     []S // Rule styles covering the run, in application order
	Inline     bool
	Kind       SpanKind // Set when Inline
}

// Segments cuts the line at every style and span boundary. Concatenating the
// Text of all segments yields the line.
func (l AnnotatedLine[S]) Segments() []Segment[S] {
	runes := []rune(l.Text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	clamp := func(v int) int { return max(0, min(v, n)) }
	cuts := []int{0, n}
	for _, s := range l.Styles {
		cuts = append(cuts, clamp(s.Start), clamp(s.End))
	}
	for _, sp := range l.Spans {
		cuts = append(cuts, clamp(sp.Start), clamp(sp.End()))
	}
	slices.Sort(cuts)
	cuts = slices.Compact(cuts)

	out := make([]Segment[S], 0, len(cuts)-1)
	for i := 0; i+1 < len(cuts); i++ {
		lo, hi := cuts[i], cuts[i+1]
		seg := Segment[S]{Text: string(runes[lo:hi]), Start: lo, End: hi}
		for _, s := range l.Styles {
			if s.Start <= lo && hi <= s.End {
				seg.Styles = append(seg.Styles, s.Style)
			}
		}
		for _, sp := range l.Spans {
			if sp.Start <= lo && hi <= sp.End() {
				seg.Inline = true
				seg.Kind = sp.Kind
			}
		}
		out = append(out, seg)
	}
	return out
}

// LineNo holds the old and new file line numbers of a diff line. Zero means
// the line has no number on that side.
type LineNo struct {
	Old, New int
}

// LineNumbers derives file line numbers from hunk headers. Lines outside any
// hunk get zero values.
func LineNumbers[S any](lines []AnnotatedLine[S]) []LineNo {
	out := make([]LineNo, len(lines))
	var old, cur int
	seen := false
	for i, l := range lines {
		switch l.Role {
		case RoleHunk:
			if h, ok := ParseHunkHeader(l.Text); ok {
				old, cur = h.OldStart, h.NewStart
				seen = true
			}
		case RoleContext:
			if seen {
				out[i] = LineNo{Old: old, New: cur}
				old++
				cur++
			}
		case RoleRemoved:
			if seen {
				out[i] = LineNo{Old: old}
				old++
			}
		case RoleAdded:
			if seen {
				out[i] = LineNo{New: cur}
				cur++
			}
		}
	}
	return out
}

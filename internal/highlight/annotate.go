package highlight

// AnnotatedLine is a diff line with its rule styles and inline spans.
type AnnotatedLine[S any] struct {
	Text   string
	Role   Role
	Styles []Styled[S]
	Spans  []Span
}

// Summary counts lines by role.
type Summary struct {
	Added, Removed, Context int
	Hunks                   int
	InlineLines             int // Lines carrying at least one inline span
	Inline                  Stats
}

// Annotation is the result of annotating a whole diff text.
type Annotation[S any] struct {
	Lines   []AnnotatedLine[S]
	Summary Summary
}

// Annotator combines a Classifier with an optional SpanComputer.
type Annotator[S any] struct {
	Classifier *Classifier[S]
	// Changes classifies RoleAdded and RoleRemoved lines. Nil falls back
	// to Classifier.
	Changes *Classifier[S]
	Spans   *SpanComputer // nil disables inline spans
}

// Annotate splits text into lines and annotates each of them.
func (a Annotator[S]) Annotate(text string) Annotation[S] {
	lines := SplitLines(text)
	roles := Roles(lines)

	var (
		spans SpansByLine
		out   Annotation[S]
	)
	if a.Spans != nil {
		spans, out.Summary.Inline = a.Spans.analyzeLines(lines, roles)
	}

	out.Lines = make([]AnnotatedLine[S], len(lines))
	for i, line := range lines {
		al := AnnotatedLine[S]{Text: line, Role: roles[i], Spans: spans[i]}
		if c := a.classifierFor(roles[i]); c != nil {
			al.Styles = c.Styles(line)
		}
		out.Lines[i] = al

		switch roles[i] {
		case RoleAdded:
			out.Summary.Added++
		case RoleRemoved:
			out.Summary.Removed++
		case RoleContext:
			out.Summary.Context++
		case RoleHunk:
			out.Summary.Hunks++
		}
		if len(al.Spans) > 0 {
			out.Summary.InlineLines++
		}
	}
	return out
}

func (a Annotator[S]) classifierFor(r Role) *Classifier[S] {
	if (r == RoleAdded || r == RoleRemoved) && a.Changes != nil {
		return a.Changes
	}
	return a.Classifier
}

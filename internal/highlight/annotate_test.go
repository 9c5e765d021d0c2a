package highlight

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/f.txt b/f.txt
index 123..456 100644
--- a/f.txt
+++ b/f.txt
@@ -1,3 +1,3 @@ header
-hello world
+hello World
 same
\ No newline at end of file
`

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: nil},
		{name: "single newline", text: "\n", want: []string{""}},
		{name: "no trailing newline", text: "a\nb", want: []string{"a", "b"}},
		{name: "trailing newline", text: "a\nb\n", want: []string{"a", "b"}},
		{name: "blank lines kept", text: "a\n\nb\n", want: []string{"a", "", "b"}},
		{name: "crlf", text: "a\r\nb\r\n", want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.text))
		})
	}
}

func TestParseHunkHeader(t *testing.T) {
	tests := []struct {
		line string
		want HunkHeader
		ok   bool
	}{
		{line: "@@ -1,3 +2,4 @@", want: HunkHeader{OldStart: 1, OldLines: 3, NewStart: 2, NewLines: 4}, ok: true},
		{line: "@@ -5 +7 @@ func x()", want: HunkHeader{OldStart: 5, OldLines: 1, NewStart: 7, NewLines: 1}, ok: true},
		{line: "@@ -0,0 +1 @@", want: HunkHeader{OldStart: 0, OldLines: 0, NewStart: 1, NewLines: 1}, ok: true},
		{line: "@@@ -1,2 -1,2 +1,3 @@@", ok: false},
		{line: "-not a header", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseHunkHeader(tt.line)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoles(t *testing.T) {
	got := Roles(SplitLines(sampleDiff))
	want := []Role{
		RoleOther, RoleOther, RoleOther, RoleOther,
		RoleHunk, RoleRemoved, RoleAdded, RoleContext, RoleNoNewline,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Roles mismatch (-want +got):\n%s", diff)
	}
}

func TestRoles_MultipleFiles(t *testing.T) {
	text := lines(
		"--- a/one",
		"+++ b/one",
		"@@ -1 +1 @@",
		"-x",
		"+y",
		"--- a/two",
		"+++ b/two",
		"@@ -1,0 +1 @@",
		"+z",
	)
	got := Roles(SplitLines(text))
	want := []Role{
		RoleOther, RoleOther, RoleHunk, RoleRemoved, RoleAdded,
		RoleOther, RoleOther, RoleHunk, RoleAdded,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Roles mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnotator_Annotate(t *testing.T) {
	spans, err := NewSpanComputer(DefaultLimits())
	require.NoError(t, err)
	a := Annotator[string]{Classifier: NewDiffClassifier(testPalette), Spans: spans}

	got := a.Annotate(sampleDiff)
	require.Len(t, got.Lines, 9)

	removed := got.Lines[5]
	assert.Equal(t, "-hello world", removed.Text)
	assert.Equal(t, RoleRemoved, removed.Role)
	assert.Equal(t, []Styled[string]{{0, 12, "del"}}, removed.Styles)
	assert.Equal(t, []Span{{Start: 7, Len: 1, Kind: Replaced}}, removed.Spans)

	hunk := got.Lines[4]
	assert.Equal(t, []Styled[string]{{0, 15, "hunk"}, {15, 22, "ctx"}}, hunk.Styles)
	assert.Empty(t, hunk.Spans)

	assert.Equal(t, Summary{
		Added:       1,
		Removed:     1,
		Context:     1,
		Hunks:       1,
		InlineLines: 2,
		Inline:      Stats{Blocks: 1, Pairs: 1},
	}, got.Summary)
}

func TestAnnotator_WithoutSpans(t *testing.T) {
	a := Annotator[string]{Classifier: NewDiffClassifier(testPalette)}
	got := a.Annotate(sampleDiff)
	for _, l := range got.Lines {
		assert.Empty(t, l.Spans)
	}
	assert.Zero(t, got.Summary.InlineLines)
}

func TestNewDiffAnnotator_DashedChangeLines(t *testing.T) {
	spans, err := NewSpanComputer(DefaultLimits())
	require.NoError(t, err)
	got := NewDiffAnnotator(testPalette, spans).Annotate(lines(
		"--- a/q.sql",
		"+++ b/q.sql",
		"@@ -1 +1,2 @@",
		"--- select all rows",
		"+-- select all users",
		"+++ counter",
	))
	require.Len(t, got.Lines, 6)

	tests := []struct {
		line int
		role Role
		want []Styled[string]
	}{
		{line: 0, role: RoleOther, want: []Styled[string]{{0, 11, "file"}}},
		{line: 1, role: RoleOther, want: []Styled[string]{{0, 11, "file"}}},
		{line: 3, role: RoleRemoved, want: []Styled[string]{{0, 19, "del"}}},
		{line: 4, role: RoleAdded, want: []Styled[string]{{0, 20, "add"}}},
		{line: 5, role: RoleAdded, want: []Styled[string]{{0, 11, "add"}}},
	}
	for _, tt := range tests {
		l := got.Lines[tt.line]
		assert.Equal(t, tt.role, l.Role, l.Text)
		assert.Equal(t, tt.want, l.Styles, l.Text)
	}
	assert.NotEmpty(t, got.Lines[3].Spans)
	assert.Equal(t, 1, got.Summary.Removed)
	assert.Equal(t, 2, got.Summary.Added)
}

func TestAnnotatedLine_Segments(t *testing.T) {
	l := AnnotatedLine[string]{
		Text:   "+ab cd ",
		Role:   RoleAdded,
		Styles: []Styled[string]{{0, 7, "add"}, {6, 7, "ws"}},
		Spans:  []Span{{Start: 4, Len: 2, Kind: Inserted}},
	}

	got := l.Segments()
	want := []Segment[string]{
		{Text: "+ab ", Start: 0, End: 4, Styles: []string{"add"}},
		{Text: "cd", Start: 4, End: 6, Styles: []string{"add"}, Inline: true, Kind: Inserted},
		{Text: " ", Start: 6, End: 7, Styles: []string{"add", "ws"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Segments mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnotatedLine_SegmentsPlainAndEmpty(t *testing.T) {
	assert.Empty(t, AnnotatedLine[string]{}.Segments())

	got := AnnotatedLine[string]{Text: " héllo"}.Segments()
	require.Len(t, got, 1)
	assert.Equal(t, Segment[string]{Text: " héllo", Start: 0, End: 6}, got[0])
}

func TestLineNumbers(t *testing.T) {
	a := Annotator[string]{Classifier: NewDiffClassifier(testPalette)}
	ann := a.Annotate(lines(
		"--- a/f",
		"+++ b/f",
		"@@ -3,3 +3,4 @@",
		" a",
		"-b",
		"+B",
		"+C",
		" d",
	))
	got := LineNumbers(ann.Lines)
	want := []LineNo{
		{}, {}, {},
		{Old: 3, New: 3},
		{Old: 4},
		{New: 4},
		{New: 5},
		{Old: 5, New: 6},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LineNumbers mismatch (-want +got):\n%s", diff)
	}
}

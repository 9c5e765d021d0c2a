package highlight

// Palette holds one style per unified-diff role.
type Palette[S any] struct {
	Header      S // diff --git, index, mode and rename lines
	FileMarker  S // --- and +++ lines
	HunkHeader  S // @@ -a,b +c,d @@
	HunkContext S // function context following the hunk header
	MetaKey     S // commit metadata key, e.g. "Author: "
	MetaValue   S
	Added       S
	Removed     S
	Whitespace  S // trailing whitespace on added lines
}

const (
	headerPattern     = `(?:diff --git |diff --cc |index |(?:new|deleted) file mode |old mode |new mode |(?:dis)?similarity index |rename (?:from|to) |copy (?:from|to) |Binary files ).*`
	fileMarkerPattern = `(?:\+\+\+|---) .*`
	hunkPattern       = `(@@+ [^@]*@@+)(.*)`
	metaPattern       = `(commit |Merge: |Author: |AuthorDate: |Commit: |CommitDate: |Date: |From:? |Subject: )(.*)`
	addedPattern      = `\+.*`
	removedPattern    = `-.*`
	whitespacePattern = `(\+(?:.*[^ \t])?)([ \t]+)$`
)

// DiffRules returns the rule set for unified diffs styled with p.
//
// Header, file marker, hunk and commit metadata rules are terminal. Added and
// removed lines are not, so the trailing whitespace rule after them can still
// mark blanks at the end of an added line.
func DiffRules[S any](p Palette[S]) []Rule[S] {
	return append([]Rule[S]{
		MustRule(headerPattern, Whole(p.Header), true),
		MustRule(fileMarkerPattern, Whole(p.FileMarker), true),
		MustRule(hunkPattern, Groups(&p.HunkHeader, &p.HunkContext), true),
		MustRule(metaPattern, Groups(&p.MetaKey, &p.MetaValue), true),
	}, ChangeRules(p)...)
}

// ChangeRules returns the subset of DiffRules that applies to change lines
// inside a hunk, where "--- x" is a removed line and not a file marker.
func ChangeRules[S any](p Palette[S]) []Rule[S] {
	return []Rule[S]{
		MustRule(addedPattern, Whole(p.Added), false),
		MustRule(removedPattern, Whole(p.Removed), false),
		MustRule(whitespacePattern, Groups(nil, &p.Whitespace), false),
	}
}

// NewDiffClassifier is shorthand for NewClassifier(DiffRules(p)...).
func NewDiffClassifier[S any](p Palette[S]) *Classifier[S] {
	return NewClassifier(DiffRules(p)...)
}

// NewDiffAnnotator returns an Annotator using DiffRules for structural lines
// and ChangeRules for in-hunk change lines. spans may be nil.
func NewDiffAnnotator[S any](p Palette[S], spans *SpanComputer) Annotator[S] {
	return Annotator[S]{
		Classifier: NewDiffClassifier(p),
		Changes:    NewClassifier(ChangeRules(p)...),
		Spans:      spans,
	}
}

// Package highlight annotates unified-diff text for display.
//
// A [Classifier] runs an ordered list of prefix-anchored [Rule] values against
// each line and yields coarse styles; [DiffRules] is the rule set for unified
// diffs. A [SpanComputer] pairs removed and added lines of each changed block
// and, for pairs that are similar enough, computes intra-line [Span] ranges in
// codepoints. [Annotator] runs both over a whole text.
//
// Style descriptors are opaque type parameters, so the same rules can produce
// lipgloss styles for a terminal or CSS class names for HTML.
package highlight

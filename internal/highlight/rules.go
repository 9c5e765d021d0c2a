package highlight

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Format describes how a matched rule styles its line. Either Whole styles the
// entire match, or Groups assigns one style per capture group (nil entries are
// left unstyled).
type Format[S any] struct {
	Whole  *S
	Groups []*S
}

// Whole returns a Format applying s to the entire match.
func Whole[S any](s S) Format[S] {
	return Format[S]{Whole: &s}
}

// Groups returns a Format applying styles to consecutive capture groups.
func Groups[S any](styles ...*S) Format[S] {
	return Format[S]{Groups: styles}
}

// Rule pairs a prefix-anchored pattern with the format it applies. A Terminal
// rule stops evaluation of later rules once it matches.
type Rule[S any] struct {
	Pattern  *regexp.Regexp
	Format   Format[S]
	Terminal bool
}

// NewRule compiles pattern anchored at the start of the line. The pattern is
// a prefix match: it does not need to consume the whole line.
func NewRule[S any](pattern string, format Format[S], terminal bool) (Rule[S], error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return Rule[S]{}, fmt.Errorf("compile rule %q: %w", pattern, err)
	}
	return Rule[S]{Pattern: re, Format: format, Terminal: terminal}, nil
}

// MustRule is like NewRule but panics on an invalid pattern. It is intended for
// static rule tables.
func MustRule[S any](pattern string, format Format[S], terminal bool) Rule[S] {
	r, err := NewRule(pattern, format, terminal)
	if err != nil {
		panic(err)
	}
	return r
}

// Match is a single rule match against a line. Matches always start at offset 0.
type Match[S any] struct {
	Rule   *Rule[S]
	Text   string   // Entire matched text
	Groups []string // Capture group text; empty for groups that did not participate
}

// Styled is a styled codepoint range [Start, End) of a line.
type Styled[S any] struct {
	Start, End int
	Style      S
}

// Classifier evaluates an ordered rule set against lines. It holds no mutable
// state and is safe for concurrent use.
type Classifier[S any] struct {
	rules []Rule[S]
}

// NewClassifier creates a classifier evaluating rules in the given order.
func NewClassifier[S any](rules ...Rule[S]) *Classifier[S] {
	return &Classifier[S]{rules: append([]Rule[S](nil), rules...)}
}

// Rules returns the number of rules in the classifier.
func (c *Classifier[S]) Rules() int {
	return len(c.rules)
}

// Classify returns the rules matching line, in registration order, stopping at
// the first terminal match. An empty line never matches.
func (c *Classifier[S]) Classify(line string) []Match[S] {
	if line == "" {
		return nil
	}

	var matches []Match[S]
	for i := range c.rules {
		rule := &c.rules[i]
		loc := rule.Pattern.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}

		m := Match[S]{Rule: rule, Text: line[loc[0]:loc[1]]}
		for g := 2; g+1 < len(loc); g += 2 {
			if loc[g] < 0 {
				m.Groups = append(m.Groups, "")
				continue
			}
			m.Groups = append(m.Groups, line[loc[g]:loc[g+1]])
		}
		matches = append(matches, m)

		if rule.Terminal {
			break
		}
	}
	return matches
}

// Styles classifies line and expands the matches into styled codepoint ranges,
// in application order. Group styles are laid out back to back from the start
// of the match, advancing by each group's length.
func (c *Classifier[S]) Styles(line string) []Styled[S] {
	var out []Styled[S]
	for _, m := range c.Classify(line) {
		out = m.appendStyles(out)
	}
	return out
}

func (m Match[S]) appendStyles(out []Styled[S]) []Styled[S] {
	format := m.Rule.Format
	if len(format.Groups) == 0 {
		if format.Whole != nil && m.Text != "" {
			out = append(out, Styled[S]{Start: 0, End: utf8.RuneCountInString(m.Text), Style: *format.Whole})
		}
		return out
	}

	cursor := 0
	for i, group := range m.Groups {
		if i >= len(format.Groups) {
			break
		}
		n := utf8.RuneCountInString(group)
		if style := format.Groups[i]; style != nil && n > 0 {
			out = append(out, Styled[S]{Start: cursor, End: cursor + n, Style: *style})
		}
		cursor += n
	}
	return out
}

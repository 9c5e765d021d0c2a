package highlight

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidThreshold is returned for a similarity threshold outside [0, 1].
var ErrInvalidThreshold = errors.New("similarity threshold must be within [0, 1]")

// SpanKind classifies an inline span.
type SpanKind int

const (
	Replaced SpanKind = iota // Range replaced by different text on the other side
	Deleted                  // Range present only on the removed line
	Inserted                 // Range present only on the added line
)

func (k SpanKind) String() string {
	switch k {
	case Replaced:
		return "replaced"
	case Deleted:
		return "deleted"
	case Inserted:
		return "inserted"
	default:
		return fmt.Sprintf("SpanKind(%d)", int(k))
	}
}

// Span is an intra-line edit range in codepoints, relative to the full line
// including its leading '-' or '+' marker.
type Span struct {
	Start, Len int
	Kind       SpanKind
}

// End returns the exclusive end offset of the span.
func (s Span) End() int { return s.Start + s.Len }

// SpansByLine maps a line index to its spans, ordered left to right.
type SpansByLine map[int][]Span

// Limits bound the work done by a SpanComputer. A negative limit disables it.
type Limits struct {
	MaxTotalLines int     // Changed lines processed across the whole text
	MaxBlockLines int     // Removed plus added lines in one changed block
	MaxLineLength int     // Codepoints in a line, excluding its marker
	Threshold     float64 // Minimum similarity ratio, inclusive
}

// DefaultLimits returns the limits used when nothing else is configured.
func DefaultLimits() Limits {
	return Limits{
		MaxTotalLines: 10000,
		MaxBlockLines: 200,
		MaxLineLength: 512,
		Threshold:     0.5,
	}
}

// Validate reports whether the limits are usable.
func (l Limits) Validate() error {
	if math.IsNaN(l.Threshold) || l.Threshold < 0 || l.Threshold > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, l.Threshold)
	}
	return nil
}

// Stats reports how much of a text a SpanComputer annotated.
type Stats struct {
	Blocks        int  // Changed blocks found
	SkippedBlocks int  // Blocks over MaxBlockLines
	Pairs         int  // Line pairs that received spans
	SkippedPairs  int  // Pairs over MaxLineLength or under Threshold
	Truncated     bool // Processing stopped at MaxTotalLines
}

// Option configures a SpanComputer.
type Option func(*SpanComputer)

// WithAligner replaces the default SequenceAligner.
func WithAligner(a Aligner) Option {
	return func(c *SpanComputer) {
		if a != nil {
			c.aligner = a
		}
	}
}

// SpanComputer computes inline spans for changed blocks of a unified diff. It
// is immutable after construction and safe for concurrent use.
type SpanComputer struct {
	limits  Limits
	aligner Aligner
}

// NewSpanComputer validates limits and returns a SpanComputer.
func NewSpanComputer(limits Limits, opts ...Option) (*SpanComputer, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	c := &SpanComputer{limits: limits, aligner: SequenceAligner{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Limits returns the configured limits.
func (c *SpanComputer) Limits() Limits {
	return c.limits
}

// Compute returns the inline spans for text. Lines that cannot be annotated
// are simply absent from the result.
func (c *SpanComputer) Compute(text string) SpansByLine {
	spans, _ := c.Analyze(text)
	return spans
}

// Analyze is like Compute and also reports what was skipped.
func (c *SpanComputer) Analyze(text string) (SpansByLine, Stats) {
	lines := SplitLines(text)
	return c.analyzeLines(lines, Roles(lines))
}

func (c *SpanComputer) analyzeLines(lines []string, roles []Role) (SpansByLine, Stats) {
	var stats Stats
	out := make(SpansByLine)
	total := 0

	for _, b := range changedBlocks(roles) {
		stats.Blocks++
		n := len(b.removed) + len(b.added)
		if exceeds(n, c.limits.MaxBlockLines) {
			stats.SkippedBlocks++
			continue
		}
		total += n
		if exceeds(total, c.limits.MaxTotalLines) {
			stats.Truncated = true
			break
		}

		pairs := min(len(b.removed), len(b.added))
		for i := 0; i < pairs; i++ {
			ri, ai := b.removed[i], b.added[i]
			oldSpans, newSpans, ok := c.pair(lines[ri], lines[ai])
			if !ok {
				stats.SkippedPairs++
				continue
			}
			stats.Pairs++
			if len(oldSpans) > 0 {
				out[ri] = oldSpans
			}
			if len(newSpans) > 0 {
				out[ai] = newSpans
			}
		}
	}
	return out, stats
}

// pair aligns one removed line with one added line. ok is false when the pair
// is skipped by the length limit or the similarity threshold.
func (c *SpanComputer) pair(removed, added string) (oldSpans, newSpans []Span, ok bool) {
	a := []rune(removed)
	b := []rune(added)
	if len(a) == 0 || len(b) == 0 {
		return nil, nil, false
	}
	a, b = a[1:], b[1:]
	if exceeds(len(a), c.limits.MaxLineLength) || exceeds(len(b), c.limits.MaxLineLength) {
		return nil, nil, false
	}

	al := c.aligner.Align(a, b)
	if al.Ratio < c.limits.Threshold {
		return nil, nil, false
	}

	for _, op := range al.Opcodes {
		if op.I1 < 0 || op.I2 > len(a) || op.I1 > op.I2 || op.J1 < 0 || op.J2 > len(b) || op.J1 > op.J2 {
			// Aligner output we cannot place on the lines.
			return nil, nil, false
		}
		switch op.Tag {
		case OpReplace:
			oldSpans = appendSpan(oldSpans, op.I1, op.I2, Replaced)
			newSpans = appendSpan(newSpans, op.J1, op.J2, Replaced)
		case OpDelete:
			oldSpans = appendSpan(oldSpans, op.I1, op.I2, Deleted)
		case OpInsert:
			newSpans = appendSpan(newSpans, op.J1, op.J2, Inserted)
		}
	}
	return oldSpans, newSpans, true
}

// appendSpan shifts [lo, hi) past the line marker.
func appendSpan(spans []Span, lo, hi int, kind SpanKind) []Span {
	if hi <= lo {
		return spans
	}
	return append(spans, Span{Start: lo + 1, Len: hi - lo, Kind: kind})
}

func exceeds(n, limit int) bool {
	return limit >= 0 && n > limit
}

type block struct {
	removed []int
	added   []int
}

// changedBlocks finds runs of removed lines immediately followed by runs of
// added lines. "\ No newline" markers do not interrupt a run.
func changedBlocks(roles []Role) []block {
	var blocks []block
	for i := 0; i < len(roles); {
		if roles[i] != RoleRemoved {
			i++
			continue
		}

		var b block
		for ; i < len(roles) && (roles[i] == RoleRemoved || roles[i] == RoleNoNewline); i++ {
			if roles[i] == RoleRemoved {
				b.removed = append(b.removed, i)
			}
		}
		for ; i < len(roles) && (roles[i] == RoleAdded || roles[i] == RoleNoNewline); i++ {
			if roles[i] == RoleAdded {
				b.added = append(b.added, i)
			}
		}
		if len(b.added) > 0 {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

package highlight

import (
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// OpTag identifies an alignment operation. The values match the tags used by
// difflib.OpCode.
type OpTag byte

const (
	OpEqual   OpTag = 'e'
	OpReplace OpTag = 'r'
	OpDelete  OpTag = 'd'
	OpInsert  OpTag = 'i'
)

// Opcode describes how a[I1:I2] turns into b[J1:J2].
type Opcode struct {
	Tag            OpTag
	I1, I2, J1, J2 int
}

// Alignment is the result of aligning two rune sequences.
type Alignment struct {
	Ratio   float64 // 2*matches / (len(a)+len(b)), 1.0 when both are empty
	Opcodes []Opcode
}

// Aligner aligns two lines at codepoint granularity.
type Aligner interface {
	Align(a, b []rune) Alignment
}

// SequenceAligner aligns with difflib's SequenceMatcher (Ratcliff/Obershelp
// gestalt matching).
type SequenceAligner struct{}

// Align implements Aligner.
func (SequenceAligner) Align(a, b []rune) Alignment {
	m := difflib.NewMatcher(runeStrings(a), runeStrings(b))
	codes := m.GetOpCodes()
	out := Alignment{Ratio: m.Ratio(), Opcodes: make([]Opcode, 0, len(codes))}
	for _, c := range codes {
		out.Opcodes = append(out.Opcodes, Opcode{Tag: OpTag(c.Tag), I1: c.I1, I2: c.I2, J1: c.J1, J2: c.J2})
	}
	return out
}

func runeStrings(rs []rune) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// MyersAligner aligns with diff-match-patch's Myers implementation. Adjacent
// delete and insert runs are folded into a single replace.
type MyersAligner struct{}

// Align implements Aligner.
func (MyersAligner) Align(a, b []rune) Alignment {
	dmp := diffmatchpatch.New()
	// No deadline, so results do not depend on machine speed.
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMainRunes(a, b, false)

	var (
		out       Alignment
		i, j      int
		dels, ins int
		matches   int
	)
	flush := func() {
		switch {
		case dels > 0 && ins > 0:
			out.Opcodes = append(out.Opcodes, Opcode{Tag: OpReplace, I1: i, I2: i + dels, J1: j, J2: j + ins})
		case dels > 0:
			out.Opcodes = append(out.Opcodes, Opcode{Tag: OpDelete, I1: i, I2: i + dels, J1: j, J2: j})
		case ins > 0:
			out.Opcodes = append(out.Opcodes, Opcode{Tag: OpInsert, I1: i, I2: i, J1: j, J2: j + ins})
		}
		i += dels
		j += ins
		dels, ins = 0, 0
	}

	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			dels += n
		case diffmatchpatch.DiffInsert:
			ins += n
		case diffmatchpatch.DiffEqual:
			flush()
			if n == 0 {
				continue
			}
			out.Opcodes = append(out.Opcodes, Opcode{Tag: OpEqual, I1: i, I2: i + n, J1: j, J2: j + n})
			i += n
			j += n
			matches += n
		}
	}
	flush()

	out.Ratio = ratio(matches, len(a)+len(b))
	return out
}

func ratio(matches, length int) float64 {
	if length > 0 {
		return 2.0 * float64(matches) / float64(length)
	}
	return 1.0
}

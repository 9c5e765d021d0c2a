package highlight

import (
	"regexp"
	"strconv"
	"strings"
)

// SplitLines splits diff text into lines. A trailing "\r" is removed from each
// line and a final newline does not produce an empty last line. Line indexes
// used throughout this package refer to the returned slice.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Role is the structural role of a line within a unified diff.
type Role int

const (
	RoleOther     Role = iota // Headers, metadata and anything unrecognized
	RoleContext               // Unchanged line inside a hunk
	RoleRemoved               // Line starting with '-'
	RoleAdded                 // Line starting with '+'
	RoleNoNewline             // "\ No newline at end of file"
	RoleHunk                  // @@ header
)

var hunkHeaderRE = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// HunkHeader holds the ranges of an "@@ -a,b +c,d @@" line.
type HunkHeader struct {
	OldStart, OldLines int
	NewStart, NewLines int
}

// ParseHunkHeader parses a unified hunk header. Omitted line counts default to 1.
func ParseHunkHeader(line string) (HunkHeader, bool) {
	m := hunkHeaderRE.FindStringSubmatch(line)
	if m == nil {
		return HunkHeader{}, false
	}
	num := func(s string, def int) int {
		if s == "" {
			return def
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return def
		}
		return n
	}
	return HunkHeader{
		OldStart: num(m[1], 0),
		OldLines: num(m[2], 1),
		NewStart: num(m[3], 0),
		NewLines: num(m[4], 1),
	}, true
}

// Roles assigns a structural role to each line.
//
// Inside a hunk the header's line counts decide how many body lines follow, so
// a removed line reading "--- x" is still a removal. Outside a hunk, "---" and
// "+++" file markers are headers. Text without any hunk header is treated as a
// bare snippet where every '-' and '+' line is a change.
func Roles(lines []string) []Role {
	roles := make([]Role, len(lines))
	var oldLeft, newLeft int
	inHunk := false

	for i, line := range lines {
		if inHunk {
			switch {
			case strings.HasPrefix(line, "-"):
				roles[i] = RoleRemoved
				oldLeft--
			case strings.HasPrefix(line, "+"):
				roles[i] = RoleAdded
				newLeft--
			case strings.HasPrefix(line, `\`):
				roles[i] = RoleNoNewline
			case strings.HasPrefix(line, "@@"):
				// Truncated hunk; fall through to header handling below.
				inHunk = false
			default:
				roles[i] = RoleContext
				oldLeft--
				newLeft--
			}
			if inHunk {
				if oldLeft <= 0 && newLeft <= 0 {
					inHunk = false
				}
				continue
			}
		}

		if h, ok := ParseHunkHeader(line); ok {
			roles[i] = RoleHunk
			oldLeft, newLeft = h.OldLines, h.NewLines
			inHunk = oldLeft > 0 || newLeft > 0
			continue
		}

		switch {
		case strings.HasPrefix(line, "@@"):
			roles[i] = RoleHunk
		case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "), line == "---", line == "+++":
			roles[i] = RoleOther
		case strings.HasPrefix(line, "-"):
			roles[i] = RoleRemoved
		case strings.HasPrefix(line, "+"):
			roles[i] = RoleAdded
		case strings.HasPrefix(line, `\`):
			roles[i] = RoleNoNewline
		}
	}
	return roles
}

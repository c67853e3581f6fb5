package repair

import (
	"regexp"
	"strconv"
	"strings"
)

// hexEscapeRe matches a \xHH byte escape so it can be rendered as the
// literal character YAML's own \xHH syntax expects it to decode to,
// recovering files written by tools that emit Python-style hex escapes
// outside a quoted scalar context.
var hexEscapeRe = regexp.MustCompile(`\\x([0-9A-Fa-f]{2})`)

// illegalBackslashRe matches a backslash not followed by one of YAML's
// recognized escape characters — the common shape of a regex or Windows
// path copied verbatim into a double-quoted scalar.
var illegalBackslashRe = regexp.MustCompile(`\\([^\\"ntr0abefvNL_Pux])`)

// fixEscapeSequences repairs illegal backslash escapes: it decodes \xHH
// sequences to their literal character and doubles any other backslash
// that YAML would otherwise reject as an unrecognized escape.
func fixEscapeSequences(b []byte) []byte {
	s := string(b)
	s = hexEscapeRe.ReplaceAllStringFunc(s, func(match string) string {
		n, err := strconv.ParseUint(match[2:], 16, 8)
		if err != nil {
			return match
		}
		return string(rune(n))
	})
	s = illegalBackslashRe.ReplaceAllString(s, `\\$1`)
	return []byte(s)
}

// balanceQuotes closes an unmatched quote on a scalar line by appending the
// missing closing quote at end of line. A line is a candidate when either
// quote character appears an odd number of times (escaped \" not counted);
// when both do, only the double quote is closed. A line with balanced
// quoting is left untouched.
func balanceQuotes(b []byte) []byte {
	lines := strings.Split(string(b), "\n")
	for i, line := range lines {
		doubleCount := strings.Count(line, `"`) - strings.Count(line, `\"`)
		singleCount := strings.Count(line, `'`)
		switch {
		case doubleCount%2 != 0:
			lines[i] = line + `"`
		case singleCount%2 != 0:
			lines[i] = line + `'`
		}
	}
	return []byte(strings.Join(lines, "\n"))
}

var sequenceItemRe = regexp.MustCompile(`^(\s*)-\s`)

func countLeadingSpaces(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// repairIndentation snaps obviously misaligned block-sequence items (`- `
// lines) back to two spaces under the mapping key that introduces them.
// It tracks the most recent key-only line ("foo:") as the current parent
// and re-indents any following sequence item that doesn't already sit at
// parent+2.
func repairIndentation(b []byte) []byte {
	lines := strings.Split(string(b), "\n")
	parentIndent := -1
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " ")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		if sequenceItemRe.MatchString(line) {
			if parentIndent < 0 {
				continue
			}
			want := parentIndent + 2
			if countLeadingSpaces(line) != want {
				lines[i] = strings.Repeat(" ", want) + strings.TrimLeft(line, " ")
			}
			continue
		}
		if strings.HasSuffix(strings.TrimSpace(trimmed), ":") {
			parentIndent = countLeadingSpaces(line)
			continue
		}
		parentIndent = -1
	}
	return []byte(strings.Join(lines, "\n"))
}

// Package udiff renders line diffs in unified format.
//
// Sequence matching is go-difflib's SequenceMatcher with auto-junk
// enabled; only the rendering lives here.
package udiff

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of unchanged lines shown around each change.
const DefaultContext = 3

const noNewline = "\\ No newline at end of file\n"

// SplitLines splits text into lines, keeping each terminator. CRLF and
// lone CR are read as LF. A final line without a terminator is kept as is.
func SplitLines(data []byte) []string {
	s := string(data)
	if strings.IndexByte(s, '\r') >= 0 {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Unified returns the diff turning a into b, labelled from and to, with
// context unchanged lines around each hunk. Equal inputs yield "".
// Every line of the result ends in a newline.
func Unified(from, to string, a, b []string, context int) string {
	if slices.Equal(a, b) {
		return ""
	}
	groups := difflib.NewMatcher(a, b).GetGroupedOpCodes(context)
	if len(groups) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n", from)
	fmt.Fprintf(&sb, "+++ %s\n", to)
	for _, g := range groups {
		first, last := g[0], g[len(g)-1]
		fmt.Fprintf(&sb, "@@ -%s +%s @@\n",
			formatRange(first.I1, last.I2), formatRange(first.J1, last.J2))

		for _, op := range g {
			switch op.Tag {
			case 'e':
				writeLines(&sb, ' ', a[op.I1:op.I2])
			case 'r':
				writeLines(&sb, '-', a[op.I1:op.I2])
				writeLines(&sb, '+', b[op.J1:op.J2])
			case 'd':
				writeLines(&sb, '-', a[op.I1:op.I2])
			case 'i':
				writeLines(&sb, '+', b[op.J1:op.J2])
			}
		}
	}
	return sb.String()
}

// formatRange renders a hunk range: "start" for one line, "start,len"
// otherwise. An empty range points at the line before it.
func formatRange(start, stop int) string {
	beginning := start + 1
	length := stop - start
	if length == 1 {
		return strconv.Itoa(beginning)
	}
	if length == 0 {
		beginning--
	}
	return fmt.Sprintf("%d,%d", beginning, length)
}

func writeLines(sb *strings.Builder, prefix byte, lines []string) {
	for _, line := range lines {
		sb.WriteByte(prefix)
		sb.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			sb.WriteString("\n")
			sb.WriteString(noNewline)
		}
	}
}

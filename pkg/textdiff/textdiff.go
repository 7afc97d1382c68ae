// Package textdiff produces human-readable line listings of the difference
// between two texts: every line is kept, prefixed with "  " (common),
// "- " (only in a), "+ " (only in b) or "? " (hint marking the characters
// that changed in the line above it).
package textdiff

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// Op is the marker of a listing line.
type Op byte

const (
	Equal  Op = ' '
	Delete Op = '-'
	Insert Op = '+'
	Hint   Op = '?'
)

// Line is one line of a listing.
type Line struct {
	Op   Op
	Text string
}

func (l Line) String() string {
	return string(l.Op) + " " + l.Text
}

// Similarity thresholds for pairing a removed line with an added one.
const (
	bestRatio = 0.74
	cutoff    = 0.75
)

// Compare lists the lines of a and b, marking what it takes to turn a into b.
func Compare(a, b []string) []Line {
	var out []Line
	m := difflib.NewMatcher(a, b)
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			out = fancyReplace(out, a, op.I1, op.I2, b, op.J1, op.J2)
		case 'd':
			out = dump(out, Delete, a, op.I1, op.I2)
		case 'i':
			out = dump(out, Insert, b, op.J1, op.J2)
		case 'e':
			out = dump(out, Equal, a, op.I1, op.I2)
		}
	}
	return out
}

// CompareText splits both texts on newlines and compares them.
func CompareText(a, b string) []Line {
	return Compare(strings.Split(a, "\n"), strings.Split(b, "\n"))
}

// Format renders a listing, one line per entry.
func Format(lines []Line) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.String())
	}
	return sb.String()
}

// Stats counts the added and removed lines of a listing.
func Stats(lines []Line) (added, removed int) {
	for _, l := range lines {
		switch l.Op {
		case Insert:
			added++
		case Delete:
			removed++
		}
	}
	return added, removed
}

func dump(out []Line, op Op, lines []string, lo, hi int) []Line {
	for i := lo; i < hi; i++ {
		out = append(out, Line{Op: op, Text: lines[i]})
	}
	return out
}

func plainReplace(out []Line, a []string, alo, ahi int, b []string, blo, bhi int) []Line {
	if bhi-blo < ahi-alo {
		out = dump(out, Insert, b, blo, bhi)
		return dump(out, Delete, a, alo, ahi)
	}
	out = dump(out, Delete, a, alo, ahi)
	return dump(out, Insert, b, blo, bhi)
}

// fancyReplace pairs the most similar lines of a replaced block so they can
// carry intraline hints, recursing on the lines around the pair.
func fancyReplace(out []Line, a []string, alo, ahi int, b []string, blo, bhi int) []Line {
	best, bestI, bestJ := bestRatio, 0, 0
	eqI, eqJ := -1, -1
	cruncher := difflib.NewMatcher(nil, nil)

	for j := blo; j < bhi; j++ {
		cruncher.SetSeq2(chars(b[j]))
		for i := alo; i < ahi; i++ {
			if a[i] == b[j] {
				if eqI < 0 {
					eqI, eqJ = i, j
				}
				continue
			}
			cruncher.SetSeq1(chars(a[i]))
			if cruncher.RealQuickRatio() > best && cruncher.QuickRatio() > best {
				if r := cruncher.Ratio(); r > best {
					best, bestI, bestJ = r, i, j
				}
			}
		}
	}

	identical := false
	if best < cutoff {
		if eqI < 0 {
			return plainReplace(out, a, alo, ahi, b, blo, bhi)
		}
		bestI, bestJ, identical = eqI, eqJ, true
	}

	out = fancyHelper(out, a, alo, bestI, b, blo, bestJ)
	aelt, belt := a[bestI], b[bestJ]
	if identical {
		out = append(out, Line{Op: Equal, Text: aelt})
	} else {
		out = qformat(out, aelt, belt)
	}
	return fancyHelper(out, a, bestI+1, ahi, b, bestJ+1, bhi)
}

func fancyHelper(out []Line, a []string, alo, ahi int, b []string, blo, bhi int) []Line {
	switch {
	case alo < ahi && blo < bhi:
		return fancyReplace(out, a, alo, ahi, b, blo, bhi)
	case alo < ahi:
		return dump(out, Delete, a, alo, ahi)
	case blo < bhi:
		return dump(out, Insert, b, blo, bhi)
	}
	return out
}

// qformat emits a changed pair with "^" (replaced), "-" (deleted) and "+"
// (inserted) hints under the affected characters.
func qformat(out []Line, aline, bline string) []Line {
	ac, bc := chars(aline), chars(bline)
	var atags, btags strings.Builder
	m := difflib.NewMatcher(ac, bc)
	for _, op := range m.GetOpCodes() {
		la, lb := op.I2-op.I1, op.J2-op.J1
		switch op.Tag {
		case 'r':
			atags.WriteString(strings.Repeat("^", la))
			btags.WriteString(strings.Repeat("^", lb))
		case 'd':
			atags.WriteString(strings.Repeat("-", la))
		case 'i':
			btags.WriteString(strings.Repeat("+", lb))
		case 'e':
			atags.WriteString(strings.Repeat(" ", la))
			btags.WriteString(strings.Repeat(" ", lb))
		}
	}

	out = append(out, Line{Op: Delete, Text: aline})
	if tags := keepWhitespace(ac, atags.String()); tags != "" {
		out = append(out, Line{Op: Hint, Text: tags})
	}
	out = append(out, Line{Op: Insert, Text: bline})
	if tags := keepWhitespace(bc, btags.String()); tags != "" {
		out = append(out, Line{Op: Hint, Text: tags})
	}
	return out
}

// keepWhitespace copies tabs and other whitespace from the line into the
// unmarked positions of the hint so markers stay aligned, then trims it.
func keepWhitespace(line []string, tags string) string {
	t := []rune(tags)
	for i := range t {
		if i < len(line) && t[i] == ' ' && isSpace(line[i]) {
			t[i] = []rune(line[i])[0]
		}
	}
	return strings.TrimRightFunc(string(t), unicode.IsSpace)
}

func isSpace(s string) bool {
	return strings.TrimSpace(s) == ""
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

package odometer

import "strings"

// Normalize canonicalizes raw engine output: full-width numerals fold to
// ASCII, optionally the usual digit-font misreads fold to the digits they
// stand for, and runs of non-newline whitespace collapse to single spaces.
// Total and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string, foldConfusables bool) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '０' && r <= '９' {
			r = '0' + (r - '０')
		}
		if foldConfusables {
			switch r {
			case 'O', 'o':
				r = '0'
			case 'I', 'l', '|':
				r = '1'
			case 'S':
				r = '5'
			case 'B':
				r = '8'
			}
		}
		b.WriteRune(r)
	}
	return collapseSpaces(b.String())
}

// collapseSpaces squeezes horizontal whitespace per line, preserving line
// structure for segmentation-sensitive extraction.
func collapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.Join(strings.Fields(line), " ")
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}

// onlyDigits strips everything but decimal digits.
func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

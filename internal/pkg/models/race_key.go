package models

import (
	"strings"

	"golang.org/x/text/width"
)

// titleMarkers are stripped from both ends of a title before comparison.
// "予想" is how umasen prefixes its listing links ("予想【...】...").
var titleMarkers = []string{"予想"}

// NormalizeTitle builds the comparison key for race titles and venue strings.
//
// Full-width forms are folded to their narrow counterparts (so "（" and "(" and
// "１１" and "11" compare equal), whitespace runs collapse to a single space and
// the marker vocabulary is removed from either end. The result is a fixed point:
// NormalizeTitle(NormalizeTitle(s)) == NormalizeTitle(s).
func NormalizeTitle(s string) string {
	s = collapseSpaces(width.Fold.String(s))
	for {
		trimmed := s
		for _, m := range titleMarkers {
			trimmed = strings.TrimPrefix(trimmed, m)
			trimmed = strings.TrimSuffix(trimmed, m)
		}
		trimmed = collapseSpaces(trimmed)
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

// LooseTitle drops everything from the first parenthesis on, so
// "京都記念(G2)" and "京都記念" share a key. Apply it to both sides of a comparison.
func LooseTitle(s string) string {
	s = NormalizeTitle(s)
	if i := strings.Index(s, "("); i >= 0 {
		s = collapseSpaces(s[:i])
	}
	return s
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

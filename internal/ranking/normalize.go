// Package ranking scores searchable items against free-text queries.
//
// Everything in this package is a pure function of its inputs (plus an
// injected clock for the aggregator), so results are deterministic and safe
// to compute from concurrent searches.
package ranking

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// isCombiningMark matches the Combining Diacritical Marks block.
func isCombiningMark(r rune) bool {
	return r >= 0x0300 && r <= 0x036F
}

// Normalize lowercases text and strips diacritics so that "Café" and "cafe"
// compare equal. Empty input yields an empty string.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	// A fresh chain per call: transform.Transformer values carry state.
	t := transform.Chain(norm.NFD, runes.Remove(runes.Predicate(isCombiningMark)))
	out, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		// Invalid UTF-8 cannot be decomposed; fall back to the lowercased input.
		return strings.ToLower(text)
	}
	return out
}

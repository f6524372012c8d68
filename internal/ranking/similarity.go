package ranking

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// StrongMatchScore is returned by BoundedSimilarity when one string contains
// the other.
const StrongMatchScore = 0.9

// minQueryWordLen is the rune length a query word must exceed to count in the
// word-overlap pass.
const minQueryWordLen = 2

// Point weights used by PointRelevance.
const (
	PointsSubstring    = 10.0
	PointsWordBoundary = 5.0
	PointsLongMatch    = 3.0
	PointsPerTerm      = 2.0

	// LongMatchRunes is the query length that earns the long-match bonus.
	LongMatchRunes = 5
)

// BoundedSimilarity scores how well text matches query on a 0-1 scale.
//
// A containment in either direction scores StrongMatchScore. Otherwise every
// query word longer than two runes that overlaps (as a substring, either way)
// with some text word counts as one match, and the score is the match count
// divided by the longer of the two word lists. The match count never exceeds
// the query word count, so the result never exceeds 1.
func BoundedSimilarity(query, text string) float64 {
	if strings.TrimSpace(query) == "" || strings.TrimSpace(text) == "" {
		return 0
	}

	q := Normalize(query)
	t := Normalize(text)

	if strings.Contains(t, q) || strings.Contains(q, t) {
		return StrongMatchScore
	}

	queryWords := strings.Fields(q)
	textWords := strings.Fields(t)

	matches := 0
	for _, qw := range queryWords {
		if utf8.RuneCountInString(qw) <= minQueryWordLen {
			continue
		}
		for _, tw := range textWords {
			if strings.Contains(tw, qw) || strings.Contains(qw, tw) {
				matches++
				break
			}
		}
	}

	denom := max(len(queryWords), len(textWords))
	if denom == 0 {
		return 0
	}
	return float64(matches) / float64(denom)
}

// PointRelevance scores text against query with additive points: a substring
// hit, a bonus when the hit sits on word boundaries, a bonus for long
// queries, and a few points for each individual query term found. Unlike
// BoundedSimilarity the result is unbounded (a single field typically scores
// 0-20) and is meant to be multiplied by boost factors.
//
// Scoring many texts against one query should go through a PointMatcher.
func PointRelevance(query, text string) float64 {
	return NewPointMatcher(query).Score(text)
}

// PointMatcher applies the PointRelevance rules for a single query. The query
// is normalized and its word-boundary pattern compiled once.
type PointMatcher struct {
	query    string
	terms    []string
	boundary *regexp.Regexp
	long     bool
}

// NewPointMatcher prepares query for repeated scoring.
func NewPointMatcher(query string) *PointMatcher {
	q := strings.TrimSpace(Normalize(query))
	m := &PointMatcher{query: q}
	if q == "" {
		return m
	}

	m.boundary = regexp.MustCompile(`\b` + regexp.QuoteMeta(q) + `\b`)
	m.long = utf8.RuneCountInString(q) >= LongMatchRunes
	for _, term := range strings.Fields(q) {
		if utf8.RuneCountInString(term) > 1 {
			m.terms = append(m.terms, term)
		}
	}
	return m
}

// Score returns the point relevance of text.
func (m *PointMatcher) Score(text string) float64 {
	if m.query == "" {
		return 0
	}
	t := Normalize(text)
	if t == "" {
		return 0
	}

	score := 0.0
	if strings.Contains(t, m.query) {
		score += PointsSubstring
		if m.boundary.MatchString(t) {
			score += PointsWordBoundary
		}
		if m.long {
			score += PointsLongMatch
		}
	}

	for _, term := range m.terms {
		if strings.Contains(t, term) {
			score += PointsPerTerm
		}
	}

	return score
}

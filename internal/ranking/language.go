package ranking

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sha1n/mcp-civic-search/internal/domain"
)

// minDetectableRunes is the shortest text the detector will classify.
// Anything shorter is reported as English.
const minDetectableRunes = 5

var (
	spanishChars = regexp.MustCompile(`[áéíóúñ¿¡]`)
	spanishWords = regexp.MustCompile(`\b(el|la|los|las|es|son|esta|estos)\b`)

	frenchChars = regexp.MustCompile(`[éèêëàâçîïôûùüÿæœ]`)
	frenchWords = regexp.MustCompile(`\b(le|la|les|des|est|sont|cette|ces)\b`)

	swahiliWords = regexp.MustCompile(`\b(na|ya|wa|ni|kwa|katika)\b`)
)

// DetectLanguage guesses the language of text with a fixed cascade of
// character-set and stop-word checks. The first check that matches wins and
// English is the fallback.
//
// The cascade is deliberately crude: Spanish is checked before French and
// both share letters and the article "la", so French text containing "é" or
// "la" is reported as Spanish. Reordering the checks changes results for
// existing content.
func DetectLanguage(text string) domain.Language {
	if utf8.RuneCountInString(text) < minDetectableRunes {
		return domain.LangEnglish
	}

	lower := strings.ToLower(text)

	switch {
	case spanishChars.MatchString(lower) || spanishWords.MatchString(lower):
		return domain.LangSpanish
	case frenchChars.MatchString(lower) || frenchWords.MatchString(lower):
		return domain.LangFrench
	case containsRange(text, 0x0900, 0x097F):
		return domain.LangHindi
	case containsRange(text, 0x4E00, 0x9FFF):
		return domain.LangChinese
	case containsRange(text, 0x0600, 0x06FF):
		return domain.LangArabic
	case swahiliWords.MatchString(lower):
		return domain.LangSwahili
	default:
		return domain.LangEnglish
	}
}

// containsRange reports whether any rune of s falls in [lo, hi].
func containsRange(s string, lo, hi rune) bool {
	for _, r := range s {
		if r >= lo && r <= hi {
			return true
		}
	}
	return false
}

package smart_conversation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// stopWords are dropped from extracted keywords. The Chinese function words come first,
// followed by their common English counterparts.
var stopWords = map[string]struct{}{
	"的": {}, "了": {}, "在": {}, "是": {}, "我": {}, "你": {}, "他": {}, "她": {}, "它": {},
	"这": {}, "那": {}, "哪些": {}, "什么": {}, "怎么": {}, "如何": {},

	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "what": {}, "which": {}, "how": {},
	"does": {}, "do": {}, "this": {}, "that": {}, "of": {}, "in": {}, "on": {}, "for": {},
	"to": {}, "and": {}, "or": {}, "use": {}, "uses": {}, "with": {}, "me": {}, "my": {},
	"it": {}, "its": {}, "about": {}, "explain": {}, "show": {}, "tell": {}, "be": {},
	"can": {}, "please": {},
}

// IsStopWord reports whether word is ignored by ExtractKeywords.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// ExtractKeywords splits a query into keywords. Punctuation becomes whitespace, stop words
// and single-rune tokens are dropped. Order and duplicates are preserved.
func ExtractKeywords(query string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, query)

	keywords := make([]string, 0)
	for _, word := range strings.Fields(cleaned) {
		if IsStopWord(word) || utf8.RuneCountInString(word) <= 1 {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

package utils

import (
	"regexp"
	"strings"
)

// stopWords are filler tokens removed from search queries. Matching is
// whole-token only, so words that merely contain one ("best", "city")
// pass through untouched.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "at": {}, "by": {}, "for": {},
	"from": {}, "in": {}, "of": {}, "on": {}, "or": {}, "the": {},
	"to": {}, "with": {},
}

var nonQueryChars = regexp.MustCompile(`[^\p{L}\p{N}\s\-'/]`)

// OptimizeQuery canonicalizes a raw search query so that equivalent
// inputs produce the same cache key and the same stored analytics text.
// It lowercases, strips noise characters, drops stop words and collapses
// whitespace. A query of nothing but stop words comes back empty.
func OptimizeQuery(raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return ""
	}

	cleaned = nonQueryChars.ReplaceAllString(cleaned, " ")

	words := strings.Fields(cleaned)
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if _, skip := stopWords[word]; skip {
			continue
		}
		kept = append(kept, word)
	}

	return strings.Join(kept, " ")
}

// Tokenize splits an already-normalized query into its terms
func Tokenize(normalized string) []string {
	return strings.Fields(normalized)
}

// Package textanalyzer provides the tokenization used by digestion
// and lexical scoring. All text flows through the same pipeline so
// that document fragments and query terms always compare equal when
// they should.
package textanalyzer

import (
	"regexp"
	"strings"
)

// tokenizerRegex extracts words. \p{L}+ matches letter sequences in
// any language, which behaves better than \w+ on accented input.
var tokenizerRegex = regexp.MustCompile(`\p{L}+`)

// Tokenize splits text into lowercase words.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	return tokenizerRegex.FindAllString(text, -1)
}

// stopWords are common English words that never become concepts.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {},
	"by": {}, "for": {}, "from": {}, "had": {}, "has": {}, "have": {}, "he": {},
	"her": {}, "his": {}, "in": {}, "is": {}, "it": {}, "its": {}, "not": {},
	"of": {}, "on": {}, "or": {}, "she": {}, "that": {}, "the": {}, "their": {},
	"them": {}, "then": {}, "there": {}, "these": {}, "they": {}, "this": {},
	"to": {}, "was": {}, "were": {}, "which": {}, "will": {}, "with": {},
	"would": {}, "you": {}, "your": {},
}

// IsStopWord reports whether the (lowercase) token is a stop word.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// FilterStopWords removes stop words from a token slice.
func FilterStopWords(tokens []string) []string {
	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !IsStopWord(token) {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

// minTermLen drops tokens too short to be meaningful concepts.
const minTermLen = 3

// Terms is the full pipeline: tokenize, drop stop words, drop tokens
// shorter than three letters. This is what both digestion and the
// tf-idf index consume.
func Terms(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) < minTermLen {
			continue
		}
		if IsStopWord(token) {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// TermFrequencies counts occurrences of each term in the text.
func TermFrequencies(text string) map[string]int {
	freq := make(map[string]int)
	for _, term := range Terms(text) {
		freq[term]++
	}
	return freq
}

// Package nlp contains the local text heuristics: normalization,
// abbreviation expansion, and the fallback progress extractor used whenever
// the model boundary is unavailable or returns something unusable. There is
// exactly one copy of these heuristics; every call site shares it.
package nlp

import (
	"regexp"
	"strings"
)

var (
	punctPattern = regexp.MustCompile(`[^\w\s]`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// expansion table applied whole-word, case-insensitive, before
// normalization in matching contexts.
var abbreviations = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bnlp\b`), "natural language processing"},
	{regexp.MustCompile(`(?i)\bml\b`), "machine learning"},
	{regexp.MustCompile(`(?i)\bai\b`), "artificial intelligence"},
	{regexp.MustCompile(`(?i)\bui\b`), "user interface"},
	{regexp.MustCompile(`(?i)\bux\b`), "user experience"},
	{regexp.MustCompile(`(?i)\bapi\b`), "application programming interface"},
}

// Normalize lowercases, strips punctuation, collapses whitespace runs to
// single spaces, and trims. Total over any input including "".
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = punctPattern.ReplaceAllString(s, "")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExpandAbbreviations rewrites known shorthand ("nlp", "ml", ...) to its
// long form so abbreviation-heavy updates still line up with goal texts.
func ExpandAbbreviations(s string) string {
	for _, a := range abbreviations {
		s = a.pattern.ReplaceAllString(s, a.replacement)
	}
	return s
}

// Words tokenizes an already-normalized string into words longer than two
// runes, the token shape the overlap scorer works on.
func Words(normalized string) []string {
	parts := strings.Split(normalized, " ")
	words := make([]string, 0, len(parts))
	for _, w := range parts {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}

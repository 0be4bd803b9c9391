// Package textutil provides the text canonicalization and keyword matching
// primitives used by the intent normalizer, follow-up interpreter, and
// aggregation engine. Every component that looks at user text goes through
// Normalize first so that matching rules only ever see one canonical form.
package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize lowercases, trims, collapses internal whitespace, and strips
// trailing sentence punctuation. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimRight(s, "?!. ")
	return s
}

// ContainsAny reports whether the normalized text contains at least one of
// the given terms as a substring. Terms are assumed to be already normalized.
func ContainsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// ContainsAll reports whether the normalized text contains every given term.
func ContainsAll(text string, terms ...string) bool {
	for _, term := range terms {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}

// HasWord reports whether the normalized text contains the term bounded by
// non-letter characters (or string edges). "bin" matches "the bin" but not
// "combine".
func HasWord(text, term string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		leftOK := start == 0 || !isWordByte(text[start-1])
		rightOK := end == len(text) || !isWordByte(text[end])
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

// HasAnyWord reports whether any of the terms matches via HasWord.
func HasAnyWord(text string, terms ...string) bool {
	for _, term := range terms {
		if HasWord(text, term) {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

// TitleCase uppercases the first letter of each space-separated word.
// Used when echoing a user-supplied county or farm name back in an answer.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

package moderation

import (
	"strings"
	"unicode"
)

// wholeWordSet holds lowercased dictionary entries for the strict check:
// exact whole-word equality against text normalized by stripping every
// non-letter character and collapsing whitespace. Unlike the fuzzy matcher
// this never fires on unrelated text that merely contains a blocked
// substring.
type wholeWordSet map[string]struct{}

func newWholeWordSet(terms []string) wholeWordSet {
	set := make(wholeWordSet, len(terms))
	for _, t := range terms {
		set[strings.ToLower(t)] = struct{}{}
	}
	return set
}

// normalizeLetters lowercases s, drops every rune that is neither a letter
// nor whitespace, and collapses whitespace runs to single spaces.
func normalizeLetters(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
			}
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// contains reports whether any whole word of the normalized text equals a
// dictionary entry.
func (s wholeWordSet) contains(text string) bool {
	cleaned := normalizeLetters(text)
	if cleaned == "" {
		return false
	}
	for _, word := range strings.Split(cleaned, " ") {
		if _, ok := s[word]; ok {
			return true
		}
	}
	return false
}

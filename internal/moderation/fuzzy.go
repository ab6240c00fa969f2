package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// maxGap is the number of incidental separator characters tolerated between
// two adjacent non-space characters of a dictionary entry.
const maxGap = 2

// isSeparator reports whether r counts as an obfuscation separator:
// whitespace, hyphen, or period.
func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '-' || r == '.'
}

// gapRule describes the separator tolerance between two adjacent kept runes
// of a dictionary entry: where the entry itself contains whitespace, one or
// more separators are required; everywhere else zero to maxGap are allowed.
type gapRule struct {
	required []bool // required[i]: a separator must appear after kept rune i
}

// FuzzyMatcher detects dictionary entries in text despite incidental
// character-level obfuscation (spacing and punctuation insertion). An
// Aho-Corasick automaton over separator-stripped text finds candidate spans;
// each candidate is then verified against the exact gap grammar via a
// mapping back to the original rune positions.
type FuzzyMatcher struct {
	machine *goahocorasick.Machine
	rules   map[string][]gapRule // stripped entry -> acceptable gap layouts
}

// NewFuzzyMatcher builds a matcher from the given word/phrase list. Matching
// is case-insensitive and Unicode-aware.
func NewFuzzyMatcher(terms []string) (*FuzzyMatcher, error) {
	rules := make(map[string][]gapRule, len(terms))
	for _, term := range terms {
		stripped, rule := compileTerm(term)
		if len(stripped) == 0 {
			continue
		}
		rules[string(stripped)] = append(rules[string(stripped)], rule)
	}

	patterns := make([][]rune, 0, len(rules))
	for key := range rules {
		patterns = append(patterns, []rune(key))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &FuzzyMatcher{machine: m, rules: rules}, nil
}

// compileTerm lowercases an entry, strips its separators, and records at
// which kept-rune boundaries a separator is mandatory.
func compileTerm(term string) ([]rune, gapRule) {
	var stripped []rune
	var required []bool

	pendingSpace := false
	for _, r := range term {
		// Entry-internal separators (including literal hyphen/period in a
		// phrase) demand at least one separator in the input at the same
		// position.
		if isSeparator(r) {
			pendingSpace = len(stripped) > 0
			continue
		}
		if len(stripped) > 0 {
			required = append(required, pendingSpace)
		}
		pendingSpace = false
		stripped = append(stripped, unicode.ToLower(r))
	}
	return stripped, gapRule{required: required}
}

// Match reports whether text contains any dictionary entry under the
// separator-tolerance grammar, returning the matched entry key.
func (fm *FuzzyMatcher) Match(text string) (string, bool) {
	orig := []rune(text)
	norm := make([]rune, 0, len(orig))
	origIdx := make([]int, 0, len(orig))

	for i, r := range orig {
		if isSeparator(r) {
			continue
		}
		norm = append(norm, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	if len(norm) == 0 {
		return "", false
	}

	for _, hit := range fm.machine.MultiPatternSearch(norm, false) {
		key := string(hit.Word)
		for _, rule := range fm.rules[key] {
			if fm.verify(origIdx, hit.Pos, len(hit.Word), rule) {
				return key, true
			}
		}
	}
	return "", false
}

// verify checks the gap grammar for a candidate span: between kept runes the
// skipped original runes are all separators by construction, so only their
// counts matter — at most maxGap where the entry is contiguous, at least one
// where the entry carries whitespace.
func (fm *FuzzyMatcher) verify(origIdx []int, pos, length int, rule gapRule) bool {
	for k := 0; k < length-1; k++ {
		gap := origIdx[pos+k+1] - origIdx[pos+k] - 1
		if k < len(rule.required) && rule.required[k] {
			if gap < 1 {
				return false
			}
			continue
		}
		if gap > maxGap {
			return false
		}
	}
	return true
}

// Package moderation validates and screens user-supplied text. Messages and
// usernames each run through a fixed, ordered pipeline of checks where the
// first failing check determines the rejection reason; the profanity
// dictionary is matched both strictly (whole-word) and fuzzily (tolerant of
// spacing/punctuation obfuscation).
package moderation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Message length bounds, measured on the whitespace-stripped, case-folded
// form.
const (
	MinMessageChars = 1
	MaxMessageChars = 1000
)

// Username length bounds, measured after whitespace removal.
const (
	MinUsernameChars = 4
	MaxUsernameChars = 24
)

// Rejection reasons for message validation.
const (
	ReasonInvalidText = "Invalid text input"
	ReasonEmpty       = "Empty message"
	ReasonTooLong     = "Message too long"
	ReasonHTML        = "HTML tags are not allowed"
	ReasonImage       = "Image links are not allowed"
	ReasonMailto      = "mailto: links are not allowed"
	ReasonLink        = "Links are not allowed"
	ReasonEmail       = "Emails are not allowed"
	ReasonProfanity   = "Inappropriate language is not allowed"
)

// Rejection reasons for username validation.
const (
	ReasonNameProfanity = "Contains inappropriate language"
	ReasonNameDomain    = "Contains domain name"
	ReasonNameDangerous = "Contains dangerous characters"
	ReasonNameEscaped   = "Contains encoded dangerous characters"
	ReasonNameEmoji     = "Username contains inappropriate emoji"
	ReasonNameLength    = "Username must be 4-24 characters"
)

var (
	htmlTagPattern   = regexp.MustCompile(`(?i)</?[a-z][\s\S]*?>`)
	imagePattern     = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp|svg)`)
	imgBBCodePattern = regexp.MustCompile(`(?i)\[img\](.*?)\[/img\]`)
	mailtoPattern    = regexp.MustCompile(`(?i)mailto:`)
	linkPattern      = regexp.MustCompile(`(?i)(https?://|www\.)`)
	emailPattern     = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)

	dangerousChars   = regexp.MustCompile("[<>;\"'\\\\`$()=@#]")
	escapedDangerous = regexp.MustCompile(`(?i)&(#x?)?[0-9a-f]+;|[<>"'&]`)
)

// emojiBlacklist is the fixed set of emoji rejected in usernames.
var emojiBlacklist = []string{
	"🖕", "🔪", "🔫", "🧨", "💣", "☠️", "💀", "⚰️", "🍆", "🍑", "💦", "👅", "🫦", "🩸", "💩", "🤮", "🤢", "🤬",
}

// Result is the outcome of a message validation pipeline run.
type Result struct {
	Valid  bool
	Reason string
}

// Moderator runs the message and username pipelines against one dictionary.
type Moderator struct {
	fuzzy *FuzzyMatcher
	words wholeWordSet
}

// New builds a Moderator for the given term list.
func New(terms []string) (*Moderator, error) {
	fm, err := NewFuzzyMatcher(terms)
	if err != nil {
		return nil, fmt.Errorf("moderation: build fuzzy matcher: %w", err)
	}
	return &Moderator{fuzzy: fm, words: newWholeWordSet(terms)}, nil
}

// Default builds a Moderator over the built-in dictionary. The dictionary is
// static, so a build failure is a programming defect and panics.
func Default() *Moderator {
	m, err := New(defaultTerms)
	if err != nil {
		panic(err)
	}
	return m
}

// stripFold removes every whitespace rune and case-folds the remainder.
func stripFold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// CheckMessage runs the ordered message pipeline. The first failing check
// determines the reason; later checks never run.
func (m *Moderator) CheckMessage(text string) Result {
	if text == "" {
		return Result{Reason: ReasonInvalidText}
	}

	// Checks 2-7 run on the whitespace-stripped, case-folded form so that
	// "w w w . e v i l . c o m" style spacing does not slip through.
	stripped := stripFold(text)

	if utf8.RuneCountInString(stripped) < MinMessageChars {
		return Result{Reason: ReasonEmpty}
	}
	if utf8.RuneCountInString(stripped) > MaxMessageChars {
		return Result{Reason: ReasonTooLong}
	}
	if htmlTagPattern.MatchString(stripped) {
		return Result{Reason: ReasonHTML}
	}
	if imagePattern.MatchString(stripped) || imgBBCodePattern.MatchString(stripped) {
		return Result{Reason: ReasonImage}
	}
	if mailtoPattern.MatchString(stripped) {
		return Result{Reason: ReasonMailto}
	}
	if linkPattern.MatchString(stripped) || knownTLDPattern.MatchString(stripped) {
		return Result{Reason: ReasonLink}
	}
	if emailPattern.MatchString(stripped) {
		return Result{Reason: ReasonEmail}
	}

	// The profanity checks deliberately see the original text: the fuzzy
	// matcher's separator tolerance depends on it.
	if m.words.contains(text) {
		return Result{Reason: ReasonProfanity}
	}
	if _, hit := m.fuzzy.Match(strings.TrimSpace(text)); hit {
		return Result{Reason: ReasonProfanity}
	}

	return Result{Valid: true}
}

// CheckUsername runs the ordered username pipeline and returns the first
// rejection reason, or "" if the name is acceptable.
func (m *Moderator) CheckUsername(name string) string {
	clean := stripFold(name)

	if m.words.contains(clean) {
		return ReasonNameProfanity
	}
	if knownTLDPattern.MatchString(clean) {
		return ReasonNameDomain
	}
	if dangerousChars.MatchString(clean) {
		return ReasonNameDangerous
	}
	if escapedDangerous.MatchString(clean) {
		return ReasonNameEscaped
	}
	for _, emoji := range emojiBlacklist {
		if strings.Contains(clean, emoji) {
			return ReasonNameEmoji
		}
	}
	if n := utf8.RuneCountInString(clean); n < MinUsernameChars || n > MaxUsernameChars {
		return ReasonNameLength
	}
	return ""
}

// Package abuse scans inbound payloads for injection signatures before any
// handler runs. A single match anywhere in a nested payload flags the whole
// request and escalates to a temporary ban for the sender's origin.
package abuse

import "regexp"

// signaturePatterns is the fixed set of attack signatures. Compiled once at
// package init and reused for every scan.
var signaturePatterns = []*regexp.Regexp{
	// HTML / script / event-handler injection markers.
	regexp.MustCompile(`(?i)<script.*?>`),
	regexp.MustCompile(`(?i)</script>`),
	regexp.MustCompile(`(?i)<.*?on\w+\s*=.*?>`),
	regexp.MustCompile(`(?i)<img.*?>`),
	regexp.MustCompile(`(?i)<iframe.*?>`),
	regexp.MustCompile(`(?i)<object.*?>`),
	regexp.MustCompile(`(?i)<embed.*?>`),
	regexp.MustCompile(`(?i)<svg.*?>`),
	regexp.MustCompile(`(?i)<link.*?>`),
	regexp.MustCompile(`(?i)<meta.*?>`),
	// Inline style / javascript / data-URI markers.
	regexp.MustCompile(`(?i)style\s*=\s*["'].*?expression.*?["']`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)data:text/html`),
	// SQL injection tokens.
	regexp.MustCompile(`(?i)select\s+.*\s+from`),
	regexp.MustCompile(`(?i)insert\s+into`),
	regexp.MustCompile(`(?i)drop\s+table`),
	regexp.MustCompile(`(?i)('|")\s+or\s+\d+=\d+`),
	regexp.MustCompile(`--`),
	regexp.MustCompile(`(?i)union\s+select`),
}

// Scan walks an arbitrary decoded JSON structure and reports whether any
// string value reachable through maps or slices matches an attack signature.
func Scan(payload any) bool {
	return scanValue(payload)
}

func scanValue(v any) bool {
	switch t := v.(type) {
	case string:
		return matches(t)
	case map[string]any:
		for _, elem := range t {
			if scanValue(elem) {
				return true
			}
		}
	case []any:
		for _, elem := range t {
			if scanValue(elem) {
				return true
			}
		}
	}
	return false
}

func matches(s string) bool {
	for _, rx := range signaturePatterns {
		if rx.MatchString(s) {
			return true
		}
	}
	return false
}

package identity

import (
	"strings"

	"github.com/google/uuid"
)

// maxTokenLength bounds token input before any store lookup.
const maxTokenLength = 100

// ValidToken reports whether s is an acceptable identity token: a v4 UUID in
// its canonical textual form, short enough and free of characters that have
// meaning to the store layer. Tokens are client-issued and trusted at face
// value, but the format gate runs before every store lookup.
func ValidToken(s string) bool {
	if s == "" || len(s) >= maxTokenLength {
		return false
	}
	if strings.ContainsAny(s, "${}") {
		return false
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	// uuid.Parse accepts several encodings; require the plain 36-char form.
	if len(s) != 36 {
		return false
	}
	return u.Version() == 4 && u.Variant() == uuid.RFC4122
}

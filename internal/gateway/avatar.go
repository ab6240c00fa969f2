package gateway

import (
	"regexp"
	"strconv"
)

// Avatars are a fixed catalog of sprites, avatar_0 through avatar_112.
// avatar_17 is the neutral fallback.
const (
	fallbackAvatar = "avatar_17"
	maxAvatarIndex = 112
)

var avatarPattern = regexp.MustCompile(`^avatar_(\d+)$`)

// normalizeAvatar maps any client-supplied avatar string onto the catalog.
// Anything malformed or out of range becomes the fallback, so avatar values
// are never an injection surface.
func normalizeAvatar(avatar string) string {
	m := avatarPattern.FindStringSubmatch(avatar)
	if m == nil {
		return fallbackAvatar
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n > maxAvatarIndex {
		return fallbackAvatar
	}
	return avatar
}

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// GravatarURL returns the default avatar for an email address.
func GravatarURL(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?d=identicon"
}

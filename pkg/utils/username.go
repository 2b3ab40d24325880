package utils

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MinUsernameLength = 2
	MaxUsernameLength = 50
)

var (
	usernameChars = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	usernameStart = regexp.MustCompile(`^[a-zA-Z0-9]`)
)

// ValidateUsername checks the account name rules. Usernames are
// case-sensitive and stored exactly as given, so surrounding spaces are an
// error rather than trimmed.
func ValidateUsername(username string) error {
	switch {
	case username != strings.TrimSpace(username):
		return usernameError("Username must not start or end with spaces")
	case len(username) < MinUsernameLength:
		return usernameError(fmt.Sprintf("Username must be at least %d characters", MinUsernameLength))
	case len(username) > MaxUsernameLength:
		return usernameError(fmt.Sprintf("Username must be at most %d characters", MaxUsernameLength))
	case !usernameChars.MatchString(username):
		return usernameError("Username can only contain letters, numbers, dots, dashes and underscores")
	case !usernameStart.MatchString(username):
		return usernameError("Username must start with a letter or number")
	}
	return nil
}

func usernameError(msg string) error {
	return &ValidationError{Field: "username", Message: msg}
}

// ValidationError names the offending field of a rejected payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

package binder

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// usernameValidator restricts usernames to letters, digits, underscores and
// hyphens so they are safe to show in URLs and feeds.
func usernameValidator(fl validator.FieldLevel) bool {
	return usernameRE.MatchString(fl.Field().String())
}

// relpathValidator rejects paths that are obviously not relative to the
// owner's notes root. The sandbox performs the authoritative check; this only
// gives API callers a friendlier message.
func relpathValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return !strings.HasPrefix(value, "/") && !strings.Contains(value, "..") && !strings.ContainsRune(value, 0)
}

package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips any markup from free-text profile fields.
func Sanitize(input string) string {
	return strings.TrimSpace(sanitizer.Sanitize(input))
}

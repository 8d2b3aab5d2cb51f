// utils/valid.go
package utils

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	scriptRegex = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
)

// SanitizeInput sanitizes free text before it is stored
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	// Remove any script blocks before escaping
	input = scriptRegex.ReplaceAllString(input, "")

	// Remove control characters, keeping line breaks
	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, input)

	return html.EscapeString(input)
}

// SanitizeEmail sanitizes and validates an email address
func SanitizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return "", errors.New("invalid email format")
	}
	return email, nil
}

// ParseObjectID parses a hex id from a path or body.
func ParseObjectID(id string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(strings.TrimSpace(id))
}

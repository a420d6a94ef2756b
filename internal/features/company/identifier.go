package company

import (
	"regexp"
	"strings"
)

var identifierRegex = regexp.MustCompile(`^[a-z0-9-]{3,20}$`)

// NormalizeIdentifier converts a tenant identifier to lowercase and validates
// format. Valid identifiers are 3-20 characters containing only lowercase
// letters, numbers, and hyphens.
func NormalizeIdentifier(value string) (string, error) {
	normalized := strings.TrimSpace(strings.ToLower(value))
	if !identifierRegex.MatchString(normalized) {
		return "", ErrIdentifierInvalid
	}
	return normalized, nil
}

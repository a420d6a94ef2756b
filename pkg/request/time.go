package request

import (
	"strings"
	"time"
)

// ParseRFC3339Ptr parses an optional RFC3339 timestamp string into a *time.Time.
func ParseRFC3339Ptr(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

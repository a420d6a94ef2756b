package badge

import "errors"

var (
	ErrBadgeNotFound = errors.New("badge not found")
	ErrNameRequired  = errors.New("badge name is required")
	ErrPointsInvalid = errors.New("points reward must not be negative")
)

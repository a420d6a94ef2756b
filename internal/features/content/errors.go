package content

import "errors"

var (
	ErrModuleNotFound = errors.New("module not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrBlockNotFound  = errors.New("block not found")
	ErrTitleRequired  = errors.New("title is required")
	ErrKindInvalid    = errors.New("block kind is invalid")
	ErrPointsInvalid  = errors.New("points reward must not be negative")
)

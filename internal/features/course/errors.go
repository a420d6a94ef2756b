package course

import "errors"

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrNameRequired    = errors.New("course name is required")
	ErrNameLength      = errors.New("course name must be between 3 and 120 characters")
	ErrTitleRequired   = errors.New("chapter title is required")
	ErrPointsInvalid   = errors.New("points reward must not be negative")
	ErrChapterDerived  = errors.New("chapter is derived from a lesson block and cannot be edited directly")
)

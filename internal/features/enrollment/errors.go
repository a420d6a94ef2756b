package enrollment

import "errors"

var (
	ErrNotEnrolled         = errors.New("user is not enrolled in this course")
	ErrCourseUnpublished   = errors.New("course is not available for enrollment")
	ErrCompletedEnrollment = errors.New("completed enrollments cannot be removed")
)

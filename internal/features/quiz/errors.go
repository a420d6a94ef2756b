package quiz

import "errors"

var (
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAlreadySubmitted    = errors.New("attempt has already been submitted")
	ErrQuizUnpublished     = errors.New("quiz is not available")
	ErrTitleRequired       = errors.New("quiz title is required")
	ErrPromptRequired      = errors.New("question prompt is required")
	ErrOptionTextRequired  = errors.New("option text is required")
	ErrOptionsRequired     = errors.New("choice questions need at least one option")
	ErrQuestionTypeInvalid = errors.New("question type is invalid")
	ErrPassScoreInvalid    = errors.New("pass score must be between 0 and 100")
	ErrPointsInvalid       = errors.New("points must not be negative")
	ErrUnknownOption       = errors.New("answer references an option that does not belong to the question")
)

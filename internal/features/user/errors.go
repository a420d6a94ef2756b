package user

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrNameRequired     = errors.New("full name is required")
	ErrEmailInvalid     = errors.New("a valid email is required")
	ErrEmailTaken       = errors.New("email is already registered")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

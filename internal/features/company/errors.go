package company

import "errors"

var (
	ErrCompanyNotFound   = errors.New("company not found")
	ErrNameRequired      = errors.New("company name is required")
	ErrNameLength        = errors.New("company name must be between 3 and 80 characters")
	ErrIdentifierTaken   = errors.New("company identifier is already in use")
	ErrIdentifierInvalid = errors.New("invalid identifier. Use 3-20 lowercase characters (letters, numbers, hyphens)")
)

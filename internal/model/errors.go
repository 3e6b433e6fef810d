package model

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")

	// Validation details wrap ErrValidation so handlers can branch on the
	// class while messages stay specific.
	ErrEmptyText       = wrap("text must be non-empty")
	ErrInvalidPosition = wrap("position out of range or not finite")
	ErrMissingAuthor   = wrap("authorId must be non-empty")
)

func wrap(msg string) error {
	return &validationError{msg: msg}
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return ErrValidation }

package util

import "errors"

type ErrorString struct {
	S string
}

func (e *ErrorString) Error() string {
	return e.S
}

// Sentinel error kinds. Wrapped with %w by the packages below the API
// boundary; the api package maps them to HTTP statuses.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrTimeout      = errors.New("deadline exceeded")
	ErrUnavailable  = errors.New("store unavailable")
)

package employees

import "errors"

var (
	ErrNotFound     = errors.New("employee not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("email or employee id already registered")
	ErrSignupClosed = errors.New("self signup disabled")
)

package documents

import "errors"

var (
	ErrNotFound  = errors.New("document not found")
	ErrForbidden = errors.New("forbidden")
	ErrProtected = errors.New("document is protected")
)

package leave

import "errors"

var (
	ErrNotFound          = errors.New("leave request not found")
	ErrUnauthorized      = errors.New("only admins may decide leave requests")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("leave request already decided")
	ErrOverlap           = errors.New("leave request overlaps an existing one")
)

package attendance

import "errors"

var (
	ErrWorkdayAlreadyFinalized = errors.New("workday already finalized")
	ErrNotFound                = errors.New("attendance record not found")
	ErrForbidden               = errors.New("forbidden")
)

package leave

import (
	"errors"
	"time"
)

// CalculateDays returns the inclusive calendar day count between start and end.
func CalculateDays(start, end time.Time) (float64, error) {
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	return end.Sub(start).Hours()/24 + 1, nil
}

// Overlaps reports whether two inclusive date ranges share a day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}

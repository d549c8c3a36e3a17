package attendance

import (
	"fmt"
	"time"
)

// Duration formats checkOut-checkIn as hours with one decimal ("8.5h").
// It reports false when either timestamp is missing.
func Duration(checkIn, checkOut *time.Time) (string, bool) {
	if checkIn == nil || checkOut == nil {
		return "", false
	}
	hours := checkOut.Sub(*checkIn).Hours()
	return fmt.Sprintf("%.1fh", hours), true
}

func withDuration(rec Record) Record {
	if value, ok := Duration(rec.CheckIn, rec.CheckOut); ok {
		rec.Duration = &value
	} else {
		rec.Duration = nil
	}
	return rec
}

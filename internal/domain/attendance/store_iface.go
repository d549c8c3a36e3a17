package attendance

import (
	"context"
	"time"
)

// CorrectFunc derives the corrected record from the locked current one.
type CorrectFunc func(current Record) (Record, error)

type StoreAPI interface {
	// Find returns nil when no record exists for (userID, date).
	Find(ctx context.Context, userID string, date time.Time) (*Record, error)
	// Toggle creates the day's record or closes the open one in a single
	// statement. It returns ErrWorkdayAlreadyFinalized when neither applies.
	Toggle(ctx context.Context, userID string, date, now time.Time) (rec Record, checkedIn bool, err error)
	Get(ctx context.Context, id string) (Record, error)
	Correct(ctx context.Context, id, correctedBy, note string, apply CorrectFunc) (before, after Record, err error)
	ListCorrections(ctx context.Context, recordID string) ([]Correction, error)
	ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]Record, error)
	ListByDate(ctx context.Context, date time.Time) ([]DailyEntry, error)
	MarkAbsences(ctx context.Context, date time.Time) (absent, onLeave int, err error)
}

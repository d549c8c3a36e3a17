package attendance

import (
	"context"
	"strings"
	"time"

	"dayflow/internal/domain/auth"
	"dayflow/internal/platform/validate"
)

type Service struct {
	store    StoreAPI
	location *time.Location
	Now      func() time.Time
}

// NewService builds the ledger. loc decides which calendar day "today" is;
// it never comes from the client.
func NewService(store StoreAPI, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, location: loc, Now: time.Now}
}

func (s *Service) today() (time.Time, time.Time) {
	now := s.Now().In(s.location)
	return Day(now), now
}

// Today returns the caller's record for the current day, or nil.
func (s *Service) Today(ctx context.Context, principal auth.UserContext) (*Record, error) {
	day, _ := s.today()
	return s.Status(ctx, principal.UserID, day)
}

func (s *Service) Status(ctx context.Context, userID string, date time.Time) (*Record, error) {
	rec, err := s.store.Find(ctx, userID, Day(date))
	if err != nil || rec == nil {
		return nil, err
	}
	out := withDuration(*rec)
	return &out, nil
}

// Toggle advances NoRecord -> CheckedIn -> CheckedOut for today.
func (s *Service) Toggle(ctx context.Context, principal auth.UserContext) (ToggleResult, error) {
	day, now := s.today()
	rec, checkedIn, err := s.store.Toggle(ctx, principal.UserID, day, now)
	if err != nil {
		return ToggleResult{}, err
	}
	status := ToggleCheckedOut
	if checkedIn {
		status = ToggleCheckedIn
	}
	return ToggleResult{Status: status, Record: withDuration(rec)}, nil
}

// Correct is the admin escape hatch. It bypasses the state machine but
// still keeps checkOut at or after checkIn, and every call lands in the
// correction history. It returns the record as it was and as it is now.
func (s *Service) Correct(ctx context.Context, actor auth.UserContext, recordID string, patch CorrectionPatch) (Record, Record, error) {
	if !actor.IsAdmin() {
		return Record{}, Record{}, ErrForbidden
	}
	patch.Note = strings.TrimSpace(patch.Note)
	if patch.Status != nil {
		upper := strings.ToUpper(strings.TrimSpace(*patch.Status))
		patch.Status = &upper
	}
	if err := validate.Struct(patch); err != nil {
		return Record{}, Record{}, err
	}

	before, after, err := s.store.Correct(ctx, recordID, actor.UserID, patch.Note, func(current Record) (Record, error) {
		return applyCorrection(current, patch)
	})
	if err != nil {
		return Record{}, Record{}, err
	}
	return withDuration(before), withDuration(after), nil
}

func applyCorrection(current Record, patch CorrectionPatch) (Record, error) {
	next := current
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	switch {
	case patch.ClearCheckIn:
		next.CheckIn = nil
	case patch.CheckIn != nil:
		in := patch.CheckIn.UTC()
		next.CheckIn = &in
	}
	switch {
	case patch.ClearCheckOut:
		next.CheckOut = nil
	case patch.CheckOut != nil:
		out := patch.CheckOut.UTC()
		next.CheckOut = &out
	}
	if next.CheckOut != nil && next.CheckIn == nil {
		return Record{}, validate.Field("checkOut", "requires checkIn")
	}
	if next.CheckOut != nil && next.CheckOut.Before(*next.CheckIn) {
		return Record{}, validate.Field("checkOut", "must be on or after checkIn")
	}
	note := patch.Note
	next.CorrectionNote = &note
	return next, nil
}

func (s *Service) Corrections(ctx context.Context, actor auth.UserContext, recordID string) ([]Correction, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if _, err := s.store.Get(ctx, recordID); err != nil {
		return nil, err
	}
	return s.store.ListCorrections(ctx, recordID)
}

// History lists a user's records newest first. Employees may only read
// their own.
func (s *Service) History(ctx context.Context, actor auth.UserContext, userID string, from, to *time.Time) ([]Record, error) {
	if !actor.IsAdmin() && actor.UserID != userID {
		return nil, ErrForbidden
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, validate.Field("to", "must be on or after from")
	}
	records, err := s.store.ListByUser(ctx, userID, dayPtr(from), dayPtr(to))
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i] = withDuration(records[i])
	}
	return records, nil
}

// Daily is the admin overview for one date; a nil date means today.
func (s *Service) Daily(ctx context.Context, actor auth.UserContext, date *time.Time) ([]DailyEntry, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	day, _ := s.today()
	if date != nil {
		day = Day(*date)
	}
	entries, err := s.store.ListByDate(ctx, day)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Record = withDuration(entries[i].Record)
	}
	return entries, nil
}

// SweepAbsences closes out yesterday: every active user without a record
// gets ABSENT, or LEAVE when an approved request covers the day. Weekends
// are skipped.
func (s *Service) SweepAbsences(ctx context.Context) (SweepResult, error) {
	day, _ := s.today()
	return s.SweepAbsencesFor(ctx, day.AddDate(0, 0, -1))
}

// SweepAbsencesFor marks one past day. Today and later are refused so an
// open workday can still be checked into.
func (s *Service) SweepAbsencesFor(ctx context.Context, date time.Time) (SweepResult, error) {
	day := Day(date)
	if today, _ := s.today(); !day.Before(today) {
		return SweepResult{}, validate.Field("date", "must be before today")
	}
	result := SweepResult{Date: day.Format(time.DateOnly)}
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		result.Skipped = true
		return result, nil
	}
	absent, onLeave, err := s.store.MarkAbsences(ctx, day)
	if err != nil {
		return SweepResult{}, err
	}
	result.Absent = absent
	result.OnLeave = onLeave
	return result, nil
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Day(*t)
	return &d
}

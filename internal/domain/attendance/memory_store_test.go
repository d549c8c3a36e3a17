package attendance_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"dayflow/internal/domain/attendance"
)

// MemoryStore implements attendance.StoreAPI. The mutex plays the role of
// the unique (user_id, date) constraint.
type MemoryStore struct {
	mu          sync.Mutex
	seq         int
	records     map[string]attendance.Record
	byDay       map[string]string
	corrections []attendance.Correction
	activeUsers []string
	onLeave     map[string]bool
	shouldFail  bool
	failError   error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: map[string]attendance.Record{},
		byDay:   map[string]string{},
		onLeave: map[string]bool{},
	}
}

func (m *MemoryStore) SetShouldFail(shouldFail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = shouldFail
	m.failError = err
}

func (m *MemoryStore) Put(rec attendance.Record) attendance.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	rec.ID = fmt.Sprintf("rec-%d", m.seq)
	m.records[rec.ID] = rec
	m.byDay[rec.UserID+"|"+rec.Date] = rec.ID
	return rec
}

func (m *MemoryStore) CountFor(userID, date string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, rec := range m.records {
		if rec.UserID == userID && rec.Date == date {
			count++
		}
	}
	return count
}

func (m *MemoryStore) Find(_ context.Context, userID string, date time.Time) (*attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return nil, m.failError
	}
	id, ok := m.byDay[userID+"|"+date.Format(time.DateOnly)]
	if !ok {
		return nil, nil
	}
	rec := m.records[id]
	return &rec, nil
}

func (m *MemoryStore) Toggle(_ context.Context, userID string, date, now time.Time) (attendance.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return attendance.Record{}, false, m.failError
	}
	key := userID + "|" + date.Format(time.DateOnly)
	id, ok := m.byDay[key]
	if !ok {
		m.seq++
		in := now
		rec := attendance.Record{
			ID:        fmt.Sprintf("rec-%d", m.seq),
			UserID:    userID,
			Date:      date.Format(time.DateOnly),
			CheckIn:   &in,
			Status:    attendance.StatusPresent,
			CreatedAt: now,
			UpdatedAt: now,
		}
		m.records[rec.ID] = rec
		m.byDay[key] = rec.ID
		return rec, true, nil
	}
	rec := m.records[id]
	if rec.CheckIn == nil || rec.CheckOut != nil {
		return attendance.Record{}, false, attendance.ErrWorkdayAlreadyFinalized
	}
	out := now
	rec.CheckOut = &out
	rec.UpdatedAt = now
	m.records[id] = rec
	return rec, false, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) Correct(_ context.Context, id, correctedBy, note string, apply attendance.CorrectFunc) (attendance.Record, attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return attendance.Record{}, attendance.Record{}, m.failError
	}
	before, ok := m.records[id]
	if !ok {
		return attendance.Record{}, attendance.Record{}, attendance.ErrNotFound
	}
	after, err := apply(before)
	if err != nil {
		return attendance.Record{}, attendance.Record{}, err
	}
	m.records[id] = after
	m.corrections = append(m.corrections, attendance.Correction{
		ID:          fmt.Sprintf("corr-%d", len(m.corrections)+1),
		RecordID:    id,
		CorrectedBy: correctedBy,
		Before:      before,
		After:       after,
		Note:        note,
	})
	return before, after, nil
}

func (m *MemoryStore) ListCorrections(_ context.Context, recordID string) ([]attendance.Correction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []attendance.Correction{}
	for i := len(m.corrections) - 1; i >= 0; i-- {
		if m.corrections[i].RecordID == recordID {
			out = append(out, m.corrections[i])
		}
	}
	return out, nil
}

func (m *MemoryStore) ListByUser(_ context.Context, userID string, from, to *time.Time) ([]attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return nil, m.failError
	}
	out := []attendance.Record{}
	for _, rec := range m.records {
		if rec.UserID != userID {
			continue
		}
		if from != nil && rec.Date < from.Format(time.DateOnly) {
			continue
		}
		if to != nil && rec.Date > to.Format(time.DateOnly) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (m *MemoryStore) ListByDate(_ context.Context, date time.Time) ([]attendance.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []attendance.DailyEntry{}
	for _, rec := range m.records {
		if rec.Date == date.Format(time.DateOnly) {
			out = append(out, attendance.DailyEntry{Record: rec, UserName: "user " + rec.UserID})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *MemoryStore) MarkAbsences(_ context.Context, date time.Time) (int, int, error) {
	m.mu.Lock()
	users := append([]string(nil), m.activeUsers...)
	m.mu.Unlock()

	var absent, onLeave int
	for _, userID := range users {
		key := userID + "|" + date.Format(time.DateOnly)
		m.mu.Lock()
		_, exists := m.byDay[key]
		leave := m.onLeave[userID]
		m.mu.Unlock()
		if exists {
			continue
		}
		status := attendance.StatusAbsent
		if leave {
			status = attendance.StatusLeave
			onLeave++
		} else {
			absent++
		}
		m.Put(attendance.Record{UserID: userID, Date: date.Format(time.DateOnly), Status: status})
	}
	return absent, onLeave, nil
}

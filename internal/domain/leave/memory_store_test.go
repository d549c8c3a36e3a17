package leave_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dayflow/internal/domain/leave"
)

type MemoryStore struct {
	mu         sync.Mutex
	requests   map[string]leave.Request
	clock      time.Time
	shouldFail bool
	failError  error
	// ignoreDecides makes Decide report no transition without touching
	// the row.
	ignoreDecides bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: map[string]leave.Request{},
		clock:    time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (m *MemoryStore) SetShouldFail(shouldFail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = shouldFail
	m.failError = err
}

func (m *MemoryStore) Create(_ context.Context, req leave.NewRequest) (leave.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return leave.Request{}, m.failError
	}
	for _, rec := range m.requests {
		if rec.UserID != req.UserID || rec.Status == leave.StatusRejected {
			continue
		}
		s, _ := time.Parse(time.DateOnly, rec.StartDate)
		e, _ := time.Parse(time.DateOnly, rec.EndDate)
		if leave.Overlaps(req.StartDate, req.EndDate, s, e) {
			return leave.Request{}, leave.ErrOverlap
		}
	}
	m.clock = m.clock.Add(time.Minute)
	days, _ := leave.CalculateDays(req.StartDate, req.EndDate)
	rec := leave.Request{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Type:      req.Type,
		StartDate: req.StartDate.Format(time.DateOnly),
		EndDate:   req.EndDate.Format(time.DateOnly),
		Days:      days,
		Remarks:   req.Remarks,
		Status:    leave.StatusPending,
		CreatedAt: m.clock,
	}
	m.requests[rec.ID] = rec
	return rec, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (leave.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.requests[id]
	if !ok {
		return leave.Request{}, leave.ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) filtered(filter leave.ListFilter) []leave.Request {
	out := []leave.Request{}
	for _, rec := range m.requests {
		if filter.UserID != "" && rec.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *MemoryStore) List(_ context.Context, filter leave.ListFilter, limit, offset int) ([]leave.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return nil, m.failError
	}
	out := m.filtered(filter)
	if offset >= len(out) {
		return []leave.Request{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Count(_ context.Context, filter leave.ListFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.filtered(filter)), nil
}

func (m *MemoryStore) Decide(_ context.Context, id, status, comment, decidedBy string) (leave.Request, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return leave.Request{}, false, m.failError
	}
	if m.ignoreDecides {
		return leave.Request{}, false, nil
	}
	rec, ok := m.requests[id]
	if !ok || rec.Status != leave.StatusPending {
		return leave.Request{}, false, nil
	}
	now := m.clock
	rec.Status = status
	if comment != "" {
		rec.AdminComment = &comment
	}
	rec.DecidedBy = &decidedBy
	rec.DecidedAt = &now
	m.requests[id] = rec
	return rec, true, nil
}

type notification struct {
	UserID string
	Type   string
	Body   string
}

type RecordingNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (n *RecordingNotifier) Create(_ context.Context, userID, ntype, _, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification{UserID: userID, Type: ntype, Body: body})
	return nil
}

func (n *RecordingNotifier) Sent() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.sent...)
}

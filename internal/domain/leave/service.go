package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dayflow/internal/domain/auth"
	"dayflow/internal/domain/notifications"
	"dayflow/internal/platform/validate"
)

type Service struct {
	store    StoreAPI
	notifier Notifier
}

func NewService(store StoreAPI, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Submit files a PENDING request for the principal. The requester is
// always the principal; nobody submits on behalf of someone else.
func (s *Service) Submit(ctx context.Context, principal auth.UserContext, in SubmitInput) (Request, error) {
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	in.Remarks = strings.TrimSpace(in.Remarks)
	if err := validate.Struct(in); err != nil {
		return Request{}, err
	}
	start, err := time.Parse(time.DateOnly, in.StartDate)
	if err != nil {
		return Request{}, validate.Field("startDate", "must be a valid date in YYYY-MM-DD format")
	}
	end, err := time.Parse(time.DateOnly, in.EndDate)
	if err != nil {
		return Request{}, validate.Field("endDate", "must be a valid date in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return Request{}, validate.Field("endDate", "must be on or after startDate")
	}

	rec, err := s.store.Create(ctx, NewRequest{
		UserID:    principal.UserID,
		Type:      in.Type,
		StartDate: start,
		EndDate:   end,
		Remarks:   in.Remarks,
	})
	if errors.Is(err, ErrOverlap) {
		return Request{}, validate.Field("startDate", "overlaps an existing pending or approved request")
	}
	return rec, err
}

// Decide moves a PENDING request to APPROVED or REJECTED. Role is checked
// before anything else so employees are refused whatever the state.
func (s *Service) Decide(ctx context.Context, actor auth.UserContext, id string, in DecideInput) (Request, error) {
	if !actor.IsAdmin() {
		return Request{}, ErrUnauthorized
	}
	in.Status = strings.ToUpper(strings.TrimSpace(in.Status))
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validate.Struct(in); err != nil {
		return Request{}, err
	}

	rec, ok, err := s.store.Decide(ctx, id, in.Status, in.Comment, actor.UserID)
	if err != nil {
		return Request{}, err
	}
	if !ok {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return Request{}, err
		}
		if !current.Terminal() {
			return Request{}, fmt.Errorf("leave request %s still pending after decide", id)
		}
		return Request{}, ErrInvalidTransition
	}

	s.notifyDecision(ctx, rec)
	return rec, nil
}

func (s *Service) notifyDecision(ctx context.Context, rec Request) {
	if s.notifier == nil {
		return
	}
	ntype, title := notifications.TypeLeaveRejected, "Leave request rejected"
	if rec.Status == StatusApproved {
		ntype, title = notifications.TypeLeaveApproved, "Leave request approved"
	}
	body := fmt.Sprintf("Your %s leave from %s to %s was %s.", strings.ToLower(rec.Type), rec.StartDate, rec.EndDate, strings.ToLower(rec.Status))
	if rec.AdminComment != nil {
		body += " Comment: " + *rec.AdminComment
	}
	if err := s.notifier.Create(ctx, rec.UserID, ntype, title, body); err != nil {
		slog.Warn("leave decision notification failed", "requestId", rec.ID, "err", err)
	}
}

// List returns requests newest first. Employees only ever see their own;
// admins may narrow by user.
func (s *Service) List(ctx context.Context, actor auth.UserContext, filter ListFilter, limit, offset int) ([]Request, int, error) {
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	if filter.Status != "" && filter.Status != StatusPending && filter.Status != StatusApproved && filter.Status != StatusRejected {
		return nil, 0, validate.Field("status", "must be one of: PENDING, APPROVED, REJECTED")
	}
	items, err := s.store.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) Get(ctx context.Context, actor auth.UserContext, id string) (Request, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !actor.IsAdmin() && rec.UserID != actor.UserID {
		return Request{}, ErrForbidden
	}
	return rec, nil
}

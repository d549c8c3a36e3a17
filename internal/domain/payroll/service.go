package payroll

import (
	"context"
	"fmt"
	"log/slog"

	"dayflow/internal/domain/auth"
	"dayflow/internal/domain/notifications"
	"dayflow/internal/platform/validate"
)

type Service struct {
	store    StoreAPI
	notifier Notifier
	Company  string
}

func NewService(store StoreAPI, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier, Company: "Dayflow"}
}

// Create appends a payroll record. Records are never edited afterwards.
func (s *Service) Create(ctx context.Context, actor auth.UserContext, in CreateInput) (Record, error) {
	if !actor.IsAdmin() {
		return Record{}, ErrForbidden
	}
	if err := validate.Struct(in); err != nil {
		return Record{}, err
	}
	emp, err := s.store.Employee(ctx, in.UserID)
	if err != nil {
		return Record{}, err
	}
	base := emp.Salary
	if in.BaseSalary != nil {
		base = *in.BaseSalary
	}
	status := in.Status
	if status == "" {
		status = StatusPaid
	}

	rec, err := s.store.Insert(ctx, Record{
		UserID:     in.UserID,
		Month:      in.Month,
		Year:       in.Year,
		BaseSalary: base,
		Bonus:      in.Bonus,
		Deductions: in.Deductions,
		NetPay:     ComputeNetPay(base, in.Bonus, in.Deductions),
		Status:     status,
	})
	if err != nil {
		return Record{}, err
	}

	if s.notifier != nil {
		body := fmt.Sprintf("Your payslip for %s %d is available. Net pay: %.2f", MonthName(rec.Month), rec.Year, rec.NetPay)
		if err := s.notifier.Create(ctx, rec.UserID, notifications.TypePayslipPublished, "Payslip published", body); err != nil {
			slog.Warn("payslip notification failed", "payrollId", rec.ID, "err", err)
		}
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, actor auth.UserContext, filter ListFilter, limit, offset int) ([]Record, int, error) {
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
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

func (s *Service) Get(ctx context.Context, actor auth.UserContext, id string) (Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !actor.IsAdmin() && rec.UserID != actor.UserID {
		return Record{}, ErrForbidden
	}
	return rec, nil
}

// Payslip renders the PDF for a record the actor may read.
func (s *Service) Payslip(ctx context.Context, actor auth.UserContext, id string) (Record, []byte, error) {
	rec, err := s.Get(ctx, actor, id)
	if err != nil {
		return Record{}, nil, err
	}
	emp, err := s.store.Employee(ctx, rec.UserID)
	if err != nil {
		return Record{}, nil, err
	}
	pdf, err := RenderPayslip(rec, emp, s.Company)
	if err != nil {
		return Record{}, nil, fmt.Errorf("render payslip: %w", err)
	}
	return rec, pdf, nil
}

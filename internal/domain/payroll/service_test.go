package payroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"dayflow/internal/domain/auth"
	"dayflow/internal/platform/validate"
)

type memoryStore struct {
	employees map[string]Employee
	records   []Record
}

func newMemoryStore() *memoryStore {
	return &memoryStore{employees: map[string]Employee{
		u1: {Name: "Asha Rao", EmployeeID: "EMP001", Department: "Engineering", Position: "Developer", Salary: 5000},
		u2: {Name: "Ben Ode", EmployeeID: "EMP002", Salary: 4000},
	}}
}

func (m *memoryStore) Employee(_ context.Context, userID string) (Employee, error) {
	emp, ok := m.employees[userID]
	if !ok {
		return Employee{}, ErrNoSalary
	}
	return emp, nil
}

func (m *memoryStore) Insert(_ context.Context, rec Record) (Record, error) {
	for _, existing := range m.records {
		if existing.UserID == rec.UserID && existing.Year == rec.Year && existing.Month == rec.Month {
			return Record{}, ErrDuplicate
		}
	}
	rec.ID = fmt.Sprintf("pay-%d", len(m.records)+1)
	rec.GeneratedAt = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Record, error) {
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *memoryStore) List(_ context.Context, filter ListFilter, _, _ int) ([]Record, error) {
	out := []Record{}
	for _, rec := range m.records {
		if filter.UserID == "" || rec.UserID == filter.UserID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	items, _ := m.List(ctx, filter, 0, 0)
	return len(items), nil
}

type countingNotifier struct {
	calls int
}

func (n *countingNotifier) Create(context.Context, string, string, string, string) error {
	n.calls++
	return nil
}

const (
	u1     = "6f1d5f4e-8d1c-4c1a-9a51-0b5e2a7f0001"
	u2     = "6f1d5f4e-8d1c-4c1a-9a51-0b5e2a7f0002"
	nobody = "6f1d5f4e-8d1c-4c1a-9a51-0b5e2a7f00ff"
)

var (
	admin    = auth.UserContext{UserID: "6f1d5f4e-8d1c-4c1a-9a51-0b5e2a7f00aa", Role: auth.RoleAdmin}
	employee = auth.UserContext{UserID: u1, Role: auth.RoleEmployee}
)

func TestCreateUsesEmployeeSalary(t *testing.T) {
	notifier := &countingNotifier{}
	svc := NewService(newMemoryStore(), notifier)

	rec, err := svc.Create(context.Background(), admin, CreateInput{UserID: u1, Month: 6, Year: 2024, Bonus: 500, Deductions: 250})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.BaseSalary != 5000 || rec.NetPay != 5250 {
		t.Fatalf("unexpected amounts: base %v net %v", rec.BaseSalary, rec.NetPay)
	}
	if rec.Status != StatusPaid {
		t.Fatalf("expected default status PAID, got %s", rec.Status)
	}
	if notifier.calls != 1 {
		t.Fatalf("expected one notification, got %d", notifier.calls)
	}
}

func TestCreateRejections(t *testing.T) {
	base := -1.0
	cases := []struct {
		name  string
		actor auth.UserContext
		input CreateInput
		check func(error) bool
	}{
		{"employee", employee, CreateInput{UserID: u1, Month: 6, Year: 2024}, func(err error) bool { return errors.Is(err, ErrForbidden) }},
		{"bad month", admin, CreateInput{UserID: u1, Month: 13, Year: 2024}, isValidation},
		{"negative base", admin, CreateInput{UserID: u1, Month: 6, Year: 2024, BaseSalary: &base}, isValidation},
		{"negative bonus", admin, CreateInput{UserID: u1, Month: 6, Year: 2024, Bonus: -5}, isValidation},
		{"bad user id", admin, CreateInput{UserID: "u1", Month: 6, Year: 2024}, isValidation},
		{"unknown user", admin, CreateInput{UserID: nobody, Month: 6, Year: 2024}, func(err error) bool { return errors.Is(err, ErrNoSalary) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(newMemoryStore(), nil)
			_, err := svc.Create(context.Background(), tc.actor, tc.input)
			if !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func isValidation(err error) bool {
	_, ok := validate.As(err)
	return ok
}

func TestCreateDuplicateMonth(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	in := CreateInput{UserID: u1, Month: 6, Year: 2024}
	if _, err := svc.Create(context.Background(), admin, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(context.Background(), admin, in); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestListScopesEmployees(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil)
	ctx := context.Background()
	for _, userID := range []string{u1, u2} {
		if _, err := svc.Create(ctx, admin, CreateInput{UserID: userID, Month: 5, Year: 2024}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	items, total, err := svc.List(ctx, employee, ListFilter{}, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || items[0].UserID != u1 {
		t.Fatalf("expected only own record, got %+v", items)
	}

	_, total, _ = svc.List(ctx, admin, ListFilter{}, 50, 0)
	if total != 2 {
		t.Fatalf("expected admin to see 2 records, got %d", total)
	}
}

func TestPayslipRendersPDF(t *testing.T) {
	svc := NewService(newMemoryStore(), nil)
	ctx := context.Background()
	rec, err := svc.Create(ctx, admin, CreateInput{UserID: u1, Month: 6, Year: 2024, Bonus: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, pdf, err := svc.Payslip(ctx, employee, rec.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatal("expected PDF output")
	}

	other := auth.UserContext{UserID: u2, Role: auth.RoleEmployee}
	if _, _, err := svc.Payslip(ctx, other, rec.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

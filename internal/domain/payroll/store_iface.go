package payroll

import "context"

type StoreAPI interface {
	// Employee returns the payroll-relevant profile, ErrNoSalary when the
	// user does not exist.
	Employee(ctx context.Context, userID string) (Employee, error)
	// Insert returns ErrDuplicate when the (user, year, month) slot is taken.
	Insert(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Record, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

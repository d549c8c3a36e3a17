package leave

import "context"

type StoreAPI interface {
	// Create returns ErrOverlap when the user already holds a PENDING or
	// APPROVED request touching [StartDate, EndDate]. The check and the
	// insert are atomic per user.
	Create(ctx context.Context, req NewRequest) (Request, error)
	Get(ctx context.Context, id string) (Request, error)
	// List orders newest first by created_at, ties broken by id.
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Request, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	// Decide only transitions a PENDING row. ok is false when the row is
	// missing or already terminal.
	Decide(ctx context.Context, id, status, comment, decidedBy string) (rec Request, ok bool, err error)
}

// Notifier is the slice of the notification service the workflow uses.
type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

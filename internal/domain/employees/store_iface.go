package employees

import "context"

type StoreAPI interface {
	Insert(ctx context.Context, user NewUser, passwordHash string) (Row, error)
	Get(ctx context.Context, id string) (Row, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Row, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Update(ctx context.Context, id string, patch Patch) (Row, error)
	SetStatus(ctx context.Context, id, status string) (Row, error)
}

type ListFilter struct {
	Search     string
	Department string
	Status     string
}

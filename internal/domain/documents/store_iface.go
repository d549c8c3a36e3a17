package documents

import "context"

type StoreAPI interface {
	Insert(ctx context.Context, doc NewDocument) (Document, error)
	Get(ctx context.Context, id string) (Document, error)
	// Content returns the stored (possibly encrypted) bytes.
	Content(ctx context.Context, id string) ([]byte, error)
	List(ctx context.Context, filter ListFilter) ([]Document, error)
	Delete(ctx context.Context, id string) error
	UserExists(ctx context.Context, userID string) (bool, error)
}

type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

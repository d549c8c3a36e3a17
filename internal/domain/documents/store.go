package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dayflow/internal/platform/querier"
)

const documentColumns = "id, user_id, title, file_name, content_type, file_size, uploaded_by, uploaded_by_role, is_private, created_at"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.UserID, &d.Title, &d.FileName, &d.ContentType, &d.FileSize, &d.UploadedBy, &d.UploadedByRole, &d.IsPrivate, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return d, err
}

func (s *Store) Insert(ctx context.Context, doc NewDocument) (Document, error) {
	d, err := scanDocument(s.DB.QueryRow(ctx, `
    INSERT INTO documents (user_id, title, file_name, content_type, file_size, content, uploaded_by, uploaded_by_role, is_private)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+documentColumns,
		doc.UserID, doc.Title, doc.FileName, doc.ContentType, doc.FileSize, doc.Content, doc.UploadedBy, doc.UploadedByRole, doc.IsPrivate))
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}
	return d, nil
}

func (s *Store) Get(ctx context.Context, id string) (Document, error) {
	return scanDocument(s.DB.QueryRow(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = $1", id))
}

func (s *Store) Content(ctx context.Context, id string) ([]byte, error) {
	var content []byte
	err := s.DB.QueryRow(ctx, "SELECT content FROM documents WHERE id = $1", id).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return content, err
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Document, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+documentColumns+`
    FROM documents
    WHERE user_id = $1 AND ($2 OR NOT is_private)
    ORDER BY created_at DESC, id DESC
  `, filter.UserID, filter.IncludePrivate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", userID).Scan(&exists)
	return exists, err
}

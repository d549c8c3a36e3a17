package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"dayflow/internal/platform/querier"
)

const requestColumns = "r.id, r.user_id, u.name, r.type, r.start_date, r.end_date, r.remarks, r.status, r.admin_comment, r.decided_by, r.decided_at, r.created_at"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	var start, end time.Time
	if err := row.Scan(&r.ID, &r.UserID, &r.UserName, &r.Type, &start, &end, &r.Remarks, &r.Status, &r.AdminComment, &r.DecidedBy, &r.DecidedAt, &r.CreatedAt); err != nil {
		return Request{}, err
	}
	r.StartDate = start.Format(time.DateOnly)
	r.EndDate = end.Format(time.DateOnly)
	r.Days, _ = CalculateDays(start, end)
	return r, nil
}

// Create inserts a PENDING request unless the user already holds a
// PENDING or APPROVED one touching the same days. The per-user advisory
// lock serialises concurrent submits so the check and the insert see the
// same rows.
func (s *Store) Create(ctx context.Context, req NewRequest) (Request, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1::text))", req.UserID); err != nil {
		return Request{}, fmt.Errorf("lock leave requests: %w", err)
	}
	var overlap bool
	if err := tx.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM leave_requests
      WHERE user_id = $1
        AND status IN ('PENDING', 'APPROVED')
        AND start_date <= $3
        AND end_date >= $2
    )
  `, req.UserID, req.StartDate, req.EndDate).Scan(&overlap); err != nil {
		return Request{}, fmt.Errorf("check leave overlap: %w", err)
	}
	if overlap {
		return Request{}, ErrOverlap
	}

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO leave_requests (user_id, type, start_date, end_date, remarks, status)
    VALUES ($1, $2, $3, $4, $5, 'PENDING')
    RETURNING id
  `, req.UserID, req.Type, req.StartDate, req.EndDate, req.Remarks).Scan(&id); err != nil {
		return Request{}, fmt.Errorf("insert leave request: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return s.Get(ctx, id)
}

func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	r, err := scanRequest(s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests r
    JOIN users u ON u.id = r.user_id
    WHERE r.id = $1
  `, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return r, err
}

func buildFilter(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		clauses = append(clauses, fmt.Sprintf("r.user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Request, error) {
	where, args := buildFilter(filter)
	args = append(args, limit, offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT %s
    FROM leave_requests r
    JOIN users u ON u.id = r.user_id%s
    ORDER BY r.created_at DESC, r.id DESC
    LIMIT $%d OFFSET $%d
  `, requestColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := buildFilter(filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(*) FROM leave_requests r"+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) Decide(ctx context.Context, id, status, comment, decidedBy string) (Request, bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = $2, admin_comment = NULLIF($3::text, ''), decided_by = $4, decided_at = now()
    WHERE id = $1 AND status = 'PENDING'
  `, id, status, comment, decidedBy)
	if err != nil {
		return Request{}, false, fmt.Errorf("decide leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Request{}, false, nil
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return Request{}, false, err
	}
	return r, true, nil
}

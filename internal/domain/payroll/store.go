package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"dayflow/internal/platform/querier"
)

const recordColumns = "p.id, p.user_id, u.name, u.employee_id, p.month, p.year, p.base_salary, p.bonus, p.deductions, p.net_pay, p.status, p.generated_at"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.UserID, &r.UserName, &r.EmployeeID, &r.Month, &r.Year, &r.BaseSalary, &r.Bonus, &r.Deductions, &r.NetPay, &r.Status, &r.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

func (s *Store) Employee(ctx context.Context, userID string) (Employee, error) {
	var e Employee
	err := s.DB.QueryRow(ctx, `
    SELECT name, employee_id, department, position, salary_base
    FROM users
    WHERE id = $1
  `, userID).Scan(&e.Name, &e.EmployeeID, &e.Department, &e.Position, &e.Salary)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNoSalary
	}
	return e, err
}

func (s *Store) Insert(ctx context.Context, rec Record) (Record, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_records (user_id, month, year, base_salary, bonus, deductions, net_pay, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, rec.UserID, rec.Month, rec.Year, rec.BaseSalary, rec.Bonus, rec.Deductions, rec.NetPay, rec.Status).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Record{}, ErrDuplicate
	}
	if err != nil {
		return Record{}, fmt.Errorf("insert payroll record: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM payroll_records p
    JOIN users u ON u.id = p.user_id
    WHERE p.id = $1
  `, id))
}

func filterClause(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		clauses = append(clauses, fmt.Sprintf("p.user_id = $%d", len(args)))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		clauses = append(clauses, fmt.Sprintf("p.year = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Record, error) {
	where, args := filterClause(filter)
	args = append(args, limit, offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT %s
    FROM payroll_records p
    JOIN users u ON u.id = p.user_id
    %s
    ORDER BY p.year DESC, p.month DESC, p.generated_at DESC
    LIMIT $%d OFFSET $%d
  `, recordColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := filterClause(filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(*) FROM payroll_records p "+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

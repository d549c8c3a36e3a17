package employees

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"dayflow/internal/platform/querier"
)

const uniqueViolation = "23505"

const employeeColumns = `id, employee_id, email, role, status, name, phone, address, profile_pic,
  department, position, joining_date, salary_base, bank_name, account_number_enc,
  emergency_contact, reporting_manager, office_location, mfa_enabled, created_at, updated_at`

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func scanRow(row pgx.Row) (Row, error) {
	var r Row
	err := row.Scan(&r.ID, &r.EmployeeID, &r.Email, &r.Role, &r.Status, &r.Name, &r.Phone, &r.Address, &r.ProfilePic,
		&r.Department, &r.Position, &r.JoiningDate, &r.Salary, &r.Bank, &r.AccountNumberEnc,
		&r.EmergencyContact, &r.ReportingManager, &r.OfficeLocation, &r.MFAEnabled, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrNotFound
	}
	return r, err
}

func (s *Store) Insert(ctx context.Context, user NewUser, passwordHash string) (Row, error) {
	row, err := scanRow(s.DB.QueryRow(ctx, `
    INSERT INTO users (employee_id, email, password_hash, role, name, phone, department, position, joining_date, salary_base)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING `+employeeColumns,
		user.EmployeeID, user.Email, passwordHash, user.Role, user.Name, user.Phone, user.Department, user.Position, user.JoiningDate, user.SalaryBase))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return Row{}, ErrConflict
	}
	return row, err
}

func (s *Store) Get(ctx context.Context, id string) (Row, error) {
	return scanRow(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM users WHERE id = $1", id))
}

func (s *Store) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Row, error) {
	where, args := filterClause(filter)
	args = append(args, limit, offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT %s FROM users %s
    ORDER BY name, employee_id
    LIMIT $%d OFFSET $%d
  `, employeeColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		r, err := scanRow(rows)
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
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users "+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func filterClause(filter ListFilter) (string, []any) {
	where := "WHERE 1=1"
	var args []any
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR employee_id ILIKE $%d OR email ILIKE $%d)", len(args), len(args), len(args))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		where += fmt.Sprintf(" AND department = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	return where, args
}

func (s *Store) Update(ctx context.Context, id string, p Patch) (Row, error) {
	return scanRow(s.DB.QueryRow(ctx, `
    UPDATE users SET
      name = COALESCE($2, name),
      phone = COALESCE($3, phone),
      address = COALESCE($4, address),
      profile_pic = COALESCE($5, profile_pic),
      emergency_contact = COALESCE($6, emergency_contact),
      department = COALESCE($7, department),
      position = COALESCE($8, position),
      joining_date = COALESCE($9, joining_date),
      salary_base = COALESCE($10, salary_base),
      bank_name = COALESCE($11, bank_name),
      account_number_enc = COALESCE($12, account_number_enc),
      reporting_manager = COALESCE($13, reporting_manager),
      office_location = COALESCE($14, office_location),
      role = COALESCE($15, role),
      updated_at = now()
    WHERE id = $1
    RETURNING `+employeeColumns,
		id, p.Name, p.Phone, p.Address, p.ProfilePic, p.EmergencyContact, p.Department, p.Position,
		p.JoiningDate, p.SalaryBase, p.BankName, p.AccountNumberEnc, p.ReportingManager, p.OfficeLocation, p.Role))
}

func (s *Store) SetStatus(ctx context.Context, id, status string) (Row, error) {
	return scanRow(s.DB.QueryRow(ctx, `
    UPDATE users SET status = $2, updated_at = now()
    WHERE id = $1
    RETURNING `+employeeColumns, id, status))
}

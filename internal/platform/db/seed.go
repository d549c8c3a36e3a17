package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dayflow/internal/domain/auth"
	"dayflow/internal/domain/employees"
	"dayflow/internal/platform/config"
)

// Seed makes sure the bootstrap admin exists. It is safe to run on every
// start; an existing account is left untouched.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	return ensureAdminUser(ctx, pool, cfg)
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	password := strings.TrimSpace(cfg.SeedAdminPassword)
	if password == "" {
		slog.Info("seed skipped, SEED_ADMIN_PASSWORD not set")
		return nil
	}
	employeeID := strings.TrimSpace(cfg.SeedAdminEmployeeID)
	if employeeID == "" {
		employeeID = "ADM001"
	}
	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	if email == "" {
		email = employees.CorporateEmail("Administrator", employeeID, cfg.CorporateDomain)
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1 OR employee_id = $2", email, employeeID).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	err = pool.QueryRow(ctx, `
    INSERT INTO users (employee_id, email, password_hash, role, name, department, position, joining_date)
    VALUES ($1, $2, $3, $4, 'Administrator', 'Human Resources', 'HR Administrator', CURRENT_DATE)
    RETURNING id
  `, employeeID, email, hash, auth.RoleAdmin).Scan(&id)
	if err != nil {
		return err
	}
	slog.Info("seeded admin user", "email", email, "userId", id)
	return nil
}

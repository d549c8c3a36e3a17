package db

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func init() {
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName("schema_migrations")
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, pool *Pool) error {
	return runGoose(ctx, pool, "up")
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, pool *Pool) error {
	return runGoose(ctx, pool, "down")
}

func runGoose(ctx context.Context, pool *Pool, command string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	if err := goose.RunContext(ctx, command, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

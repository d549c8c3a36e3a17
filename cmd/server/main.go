package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dayflow/internal/app/server"
	"dayflow/internal/platform/config"
	"dayflow/internal/platform/db"
	"dayflow/internal/platform/logger"
)

var migrateRollback bool

var rootCmd = &cobra.Command{
	Use:           "dayflow",
	Short:         "Dayflow HR core",
	Long:          `Attendance, leave and payroll API for small teams.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP API and the job scheduler",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "apply pending migrations, or roll back the latest one",
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "create the bootstrap admin account",
	RunE:  runSeed,
}

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg := config.Load()
	logger.Init(cfg.Environment, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Serve(ctx)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if migrateRollback {
		return db.Rollback(ctx, pool)
	}
	return db.Migrate(ctx, pool)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	return db.Seed(ctx, pool, cfg)
}

// Package cli is the phonestore command line: it serves the HTTP API and runs
// the operational one-shots (schema migration, catalog seeding, dev tokens).
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"phone-store/internal/config"
	"phone-store/internal/db"
	"phone-store/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:   "phonestore",
	Short: "Phone store order fulfillment and unit lifecycle engine",
	Long: `phonestore tracks every IMEI-serialized handset from supplier receipt
through sale, return and warranty service.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the environment and builds the process logger from it.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}

// openPool connects to DATABASE_URL for the commands that only make sense on Postgres.
func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

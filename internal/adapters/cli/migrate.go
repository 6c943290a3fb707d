package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"phone-store/internal/store/seed"
	"phone-store/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations to DATABASE_URL",
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo catalog (products, colors, promotions, carts) into DATABASE_URL",
	Long: `Load the demo catalog into DATABASE_URL. Existing rows with the same ids
are overwritten, so the command can be re-run after the data was edited.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	pool, err := openPool(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := migrations.Apply(cmd.Context(), pool)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
		return nil
	}
	logger.Info("migrations applied", zap.Strings("names", applied))
	for _, name := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
	}
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	pool, err := openPool(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	catalog := seed.Demo(time.Now())
	if err := catalog.LoadPostgres(cmd.Context(), pool); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products, %d colors, %d promotions, %d carts.\n",
		len(catalog.Products), len(catalog.Colors), len(catalog.Promotions), len(catalog.Carts))
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	webAdapter "phone-store/internal/adapters/web"
	"phone-store/internal/app"
	"phone-store/internal/config"
	"phone-store/internal/core"
	"phone-store/internal/events"
	"phone-store/internal/store/memory"
	"phone-store/internal/store/postgres"
	"phone-store/internal/store/seed"
	"phone-store/migrations"
)

var (
	migrateOnStart bool
	seedDemo       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API on SERVER_PORT.

STORE_DRIVER selects the backing store: "postgres" (DATABASE_URL) or "memory".
Lifecycle events go to Kafka when KAFKA_BROKERS is set and are dropped otherwise.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply pending migrations before serving (postgres only)")
	serveCmd.Flags().BoolVar(&seedDemo, "seed-demo", false, "Load the demo catalog before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher := newPublisher(cfg, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("event publisher close failed", zap.Error(err))
		}
	}()

	services := app.NewServices(store, cfg.Settings(), logger)
	svc := app.NewAppService(services, publisher, cfg.PaymentURLTemplate, logger)
	handler := webAdapter.NewHandler(svc, cfg.AllowedOrigins, cfg.JWTSecret, cfg.PaymentCallbackSecret, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.ServerPort),
			zap.String("store", cfg.StoreDriver),
			zap.Int("kafka_brokers", len(cfg.KafkaBrokers)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// openStore builds the configured core.Store and returns a func releasing it.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (core.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		store := memory.New()
		if seedDemo {
			seed.Demo(time.Now()).LoadMemory(store)
			logger.Info("demo catalog loaded", zap.String("store", cfg.StoreDriver))
		}
		return store, func() {}, nil
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if migrateOnStart {
		applied, err := migrations.Apply(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("migrations applied", zap.Strings("names", applied))
	}
	if seedDemo {
		if err := seed.Demo(time.Now()).LoadPostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("demo catalog loaded", zap.String("store", cfg.StoreDriver))
	}
	return postgres.New(pool), pool.Close, nil
}

func newPublisher(cfg *config.Config, logger *zap.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("KAFKA_BROKERS not set; lifecycle events are not published")
		return events.NopPublisher{}
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
}

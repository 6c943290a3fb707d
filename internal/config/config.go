// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"phone-store/internal/core"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	ServerPort     string `envconfig:"SERVER_PORT" default:"8080"`
	StoreDriver    string `envconfig:"STORE_DRIVER" default:"postgres"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	JWTSecret      string `envconfig:"JWT_SECRET"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`

	DBMaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns        int           `envconfig:"DB_MIN_CONNS" default:"0"`
	DBMaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	DBMaxConnIdleTime time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"5m"`
	DBConnectTimeout  time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"5s"`

	ReturnWindowDays int           `envconfig:"RETURN_WINDOW_DAYS" default:"7"`
	WarrantyMonths   int           `envconfig:"WARRANTY_MONTHS" default:"12"`
	TxTimeout        time.Duration `envconfig:"TX_TIMEOUT" default:"10s"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"store-lifecycle-events"`

	// PaymentURLTemplate is a fmt template with one %s verb for the order id.
	PaymentURLTemplate string `envconfig:"PAYMENT_URL_TEMPLATE"`

	// PaymentCallbackSecret keys the X-Signature HMAC on /payments/callback.
	PaymentCallbackSecret string `envconfig:"PAYMENT_CALLBACK_SECRET"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return &cfg, nil
}

// Validate checks what the serve command needs before it opens any connection.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StorePostgres)
		}
		if err := c.validatePool(); err != nil {
			return err
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", c.StoreDriver, StorePostgres, StoreMemory)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.PaymentCallbackSecret == "" {
		return fmt.Errorf("PAYMENT_CALLBACK_SECRET is required")
	}
	if c.ReturnWindowDays <= 0 {
		return fmt.Errorf("RETURN_WINDOW_DAYS must be positive, got %d", c.ReturnWindowDays)
	}
	if c.WarrantyMonths <= 0 {
		return fmt.Errorf("WARRANTY_MONTHS must be positive, got %d", c.WarrantyMonths)
	}
	if c.PaymentURLTemplate != "" && strings.Count(c.PaymentURLTemplate, "%s") != 1 {
		return fmt.Errorf("PAYMENT_URL_TEMPLATE must contain exactly one %%s")
	}
	return nil
}

func (c *Config) validatePool() error {
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS, got %d", c.DBMinConns)
	}
	if c.DBConnectTimeout <= 0 {
		return fmt.Errorf("DB_CONNECT_TIMEOUT must be positive, got %s", c.DBConnectTimeout)
	}
	return nil
}

// Settings converts the business tunables into core.Settings.
func (c *Config) Settings() core.Settings {
	return core.Settings{
		TxTimeout:      c.TxTimeout,
		ReturnWindow:   time.Duration(c.ReturnWindowDays) * 24 * time.Hour,
		WarrantyMonths: c.WarrantyMonths,
	}
}

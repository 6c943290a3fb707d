package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test. An empty value is not the
// same as an unset one: envconfig only applies defaults to unset variables.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "SERVER_PORT", "STORE_DRIVER", "LOG_LEVEL", "RETURN_WINDOW_DAYS",
		"WARRANTY_MONTHS", "TX_TIMEOUT", "KAFKA_BROKERS", "KAFKA_TOPIC", "SHUTDOWN_TIMEOUT",
		"DB_MAX_CONNS", "DB_MIN_CONNS", "DB_MAX_CONN_LIFETIME", "DB_MAX_CONN_IDLE_TIME", "DB_CONNECT_TIMEOUT")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 7, cfg.ReturnWindowDays)
	assert.Equal(t, 12, cfg.WarrantyMonths)
	assert.Equal(t, 10*time.Second, cfg.TxTimeout)
	assert.Equal(t, "store-lifecycle-events", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 10, cfg.DBMaxConns)
	assert.Equal(t, 0, cfg.DBMinConns)
	assert.Equal(t, 30*time.Minute, cfg.DBMaxConnLifetime)
	assert.Equal(t, 5*time.Minute, cfg.DBMaxConnIdleTime)
	assert.Equal(t, 5*time.Second, cfg.DBConnectTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", " Memory ")
	t.Setenv("RETURN_WINDOW_DAYS", "14")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TX_TIMEOUT", "3s")
	t.Setenv("DB_MAX_CONNS", "40")
	t.Setenv("DB_CONNECT_TIMEOUT", "2s")
	t.Setenv("PAYMENT_CALLBACK_SECRET", "gateway-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 14, cfg.ReturnWindowDays)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 40, cfg.DBMaxConns)
	assert.Equal(t, 2*time.Second, cfg.DBConnectTimeout)
	assert.Equal(t, "gateway-key", cfg.PaymentCallbackSecret)

	s := cfg.Settings()
	assert.Equal(t, 14*24*time.Hour, s.ReturnWindow)
	assert.Equal(t, 3*time.Second, s.TxTimeout)
}

func TestLoad_RejectsMalformedNumber(t *testing.T) {
	t.Setenv("RETURN_WINDOW_DAYS", "a week")
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			StoreDriver:           StorePostgres,
			DatabaseURL:           "postgres://localhost/phone_store",
			DBMaxConns:            10,
			DBConnectTimeout:      5 * time.Second,
			JWTSecret:             "secret",
			PaymentCallbackSecret: "gateway-key",
			ReturnWindowDays:      7,
			WarrantyMonths:        12,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"memory needs no database", func(c *Config) { c.StoreDriver, c.DatabaseURL = StoreMemory, "" }, ""},
		{"postgres needs database", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }, "STORE_DRIVER"},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"missing callback secret", func(c *Config) { c.PaymentCallbackSecret = "" }, "PAYMENT_CALLBACK_SECRET"},
		{"empty pool", func(c *Config) { c.DBMaxConns = 0 }, "DB_MAX_CONNS"},
		{"min above max", func(c *Config) { c.DBMinConns = 11 }, "DB_MIN_CONNS"},
		{"no connect timeout", func(c *Config) { c.DBConnectTimeout = 0 }, "DB_CONNECT_TIMEOUT"},
		{"memory ignores pool", func(c *Config) { c.StoreDriver, c.DBMaxConns = StoreMemory, 0 }, ""},
		{"zero window", func(c *Config) { c.ReturnWindowDays = 0 }, "RETURN_WINDOW_DAYS"},
		{"negative warranty", func(c *Config) { c.WarrantyMonths = -1 }, "WARRANTY_MONTHS"},
		{"bad payment template", func(c *Config) { c.PaymentURLTemplate = "https://pay.example/checkout" }, "PAYMENT_URL_TEMPLATE"},
		{"payment template", func(c *Config) { c.PaymentURLTemplate = "https://pay.example/checkout/%s" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

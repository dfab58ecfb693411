package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "memory")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.AppAddr)
		assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
		assert.Equal(t, 3, cfg.TxMaxRetries)
		assert.Equal(t, "WH-MAIN", cfg.ReturnLocationCode)
		assert.True(t, cfg.IdempotencyEnabled)
		assert.False(t, cfg.AuthEnabled())
		assert.False(t, cfg.IsProduction())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "postgres://localhost/partsflow")
		t.Setenv("DB_MAX_CONNS", "40")
		t.Setenv("REPORT_CACHE_TTL", "90s")
		t.Setenv("JWT_SECRET", strings.Repeat("s", 32))

		cfg, err := LoadFromEnv()
		require.NoError(t, err)

		assert.Equal(t, int32(40), cfg.DBMaxConns)
		assert.Equal(t, 90*time.Second, cfg.ReportCacheTTL)
		assert.True(t, cfg.AuthEnabled())

		pool := cfg.PoolConfig("partsflow-test")
		assert.Equal(t, "postgres://localhost/partsflow", pool.DSN)
		assert.Equal(t, int32(40), pool.MaxConns)
		assert.Equal(t, "partsflow-test", pool.ApplicationName)
	})

	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "memory")
		t.Setenv("APP_READ_TIMEOUT", "soon")

		_, err := LoadFromEnv()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			StorageDriver:   DriverPostgres,
			DatabaseURL:     "postgres://localhost/partsflow",
			DBMaxConns:      10,
			DBMinConns:      2,
			OutboxBatchSize: 100,

			OutboxPollInterval:   time.Second,
			HousekeepingInterval: time.Minute,
			PoolStatsPeriod:      time.Minute,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "postgres without dsn", mutate: func(c *Config) { c.DatabaseURL = "" }, errMsg: "DATABASE_URL"},
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "sqlite" }, errMsg: "STORAGE_DRIVER"},
		{name: "min above max", mutate: func(c *Config) { c.DBMinConns = 20 }, errMsg: "DB_MIN_CONNS"},
		{name: "production needs secret", mutate: func(c *Config) { c.AppEnv = "production" }, errMsg: "JWT_SECRET is required"},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = "short" }, errMsg: "at least 32 bytes"},
		{name: "zero poll interval", mutate: func(c *Config) { c.OutboxPollInterval = 0 }, errMsg: "OUTBOX_POLL_INTERVAL must be positive"},
		{name: "memory ignores dsn", mutate: func(c *Config) { c.StorageDriver = DriverMemory; c.DatabaseURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

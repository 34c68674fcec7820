package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "DB_DRIVER", "DB_RETRY_ATTEMPTS", "DB_RETRY_DELAY", "REQUEST_EXPIRY_HOURS", "AUTO_CLEANUP_INTERVAL_HOURS", "CORS_ORIGINS", "DEV_USER_ID", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 3, cfg.DBRetryAttempts)
	assert.Equal(t, time.Second, cfg.DBRetryDelay)
	assert.Equal(t, 24*time.Hour, cfg.RequestExpiry)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, "a1234567-1234-1234-1234-123456789abc", cfg.DevUserID)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_RETRY_ATTEMPTS", "5")
	t.Setenv("DB_RETRY_DELAY", "250ms")
	t.Setenv("REQUEST_EXPIRY_HOURS", "48")
	t.Setenv("AUTO_CLEANUP_INTERVAL_HOURS", "6")
	t.Setenv("CORS_ORIGINS", "http://localhost:8081, https://app.example.edu ,")
	t.Setenv("IS_PROD", "true")

	cfg := LoadConfig()
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 5, cfg.DBRetryAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.DBRetryDelay)
	assert.Equal(t, 48*time.Hour, cfg.RequestExpiry)
	assert.Equal(t, 6*time.Hour, cfg.SweepInterval)
	assert.Equal(t, []string{"http://localhost:8081", "https://app.example.edu"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsProd)
}

func TestGetEnvInt_BadValueFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "three")
	assert.Equal(t, 7, getEnvInt("SOME_INT", 7))
}

func TestLoadConfig_NonPositiveDurationsFallBack(t *testing.T) {
	t.Setenv("DB_HEALTH_INTERVAL", "0s")
	t.Setenv("DB_RETRY_DELAY", "-1s")
	t.Setenv("CACHE_TTL", "0")

	cfg := LoadConfig()
	assert.Equal(t, 30*time.Second, cfg.DBHealthInterval)
	assert.Equal(t, time.Second, cfg.DBRetryDelay)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, DefaultTokenTTL, cfg.TokenTTL)
	assert.Equal(t, DefaultRateLimitRequests, cfg.RateLimitRequests)
	assert.Equal(t, DefaultRateLimitWindow, cfg.RateLimitWindow)
	assert.Equal(t, int64(DefaultMaxPayloadBytes), cfg.MaxPayloadBytes)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "10")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("SECRET_KEY", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, 10*time.Second, cfg.RateLimitWindow)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		c := &Config{JWTAlgorithm: "HS256", RateLimitRequests: 1, RateLimitWindow: time.Second, MaxPayloadBytes: 1}
		require.Error(t, c.Validate())
	})

	t.Run("short secret in production", func(t *testing.T) {
		c := &Config{JWTSecret: "short", JWTAlgorithm: "HS256", Environment: "production",
			RateLimitRequests: 1, RateLimitWindow: time.Second, MaxPayloadBytes: 1}
		require.Error(t, c.Validate())
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		c := &Config{JWTSecret: "s", JWTAlgorithm: "none", RateLimitRequests: 1, RateLimitWindow: time.Second, MaxPayloadBytes: 1}
		require.Error(t, c.Validate())
	})
}

// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultTokenTTL mirrors the historical 30-day session length
	// (43200 minutes). There is no refresh or revocation mechanism, so
	// expiry is the only invalidation; this is a documented trade-off.
	DefaultTokenTTL = 43200 * time.Minute

	DefaultRateLimitRequests = 100
	DefaultRateLimitWindow   = 60 * time.Second
	DefaultMaxPayloadBytes   = 1 << 20 // 1 MiB
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisAddr   string

	JWTSecret    string
	JWTAlgorithm string
	TokenTTL     time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration
	MaxPayloadBytes   int64

	Environment string
	LogLevel    string
}

// Load reads configuration from environment variables, honoring a .env
// file when present (not required in production).
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		JWTSecret:         getEnv("SECRET_KEY", ""),
		JWTAlgorithm:      getEnv("ALGORITHM", "HS256"),
		TokenTTL:          time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 43200)) * time.Minute,
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", DefaultRateLimitRequests),
		RateLimitWindow:   time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		MaxPayloadBytes:   int64(getEnvAsInt("MAX_PAYLOAD_BYTES", DefaultMaxPayloadBytes)),
		Environment:       getEnv("ENVIRONMENT", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the configuration is usable before the server starts.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
	}
	if c.JWTAlgorithm != "HS256" {
		return fmt.Errorf("unsupported ALGORITHM %q: only HS256 is supported", c.JWTAlgorithm)
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit requests and window must be positive")
	}
	if c.MaxPayloadBytes <= 0 {
		return fmt.Errorf("MAX_PAYLOAD_BYTES must be positive")
	}
	return nil
}

// IsProduction reports whether the deployment is flagged as production.
// It controls HSTS enforcement and error message redaction.
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	TokenEncryptionKey string `env:"TOKEN_ENCRYPTION_KEY"`
	SigningSecret      string `env:"SIGNING_SECRET"`
	RedisURL           string `env:"REDIS_URL"`

	WebhookRateLimit   float64 `env:"WEBHOOK_RATE_LIMIT" default:"20"`
	WebhookRateBurst   int     `env:"WEBHOOK_RATE_BURST" default:"40"`
	WebhookMaxBodySize int64   `env:"WEBHOOK_MAX_BODY_BYTES" default:"1048576"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// validate never includes secret values in its errors.
func validate(cfg *Config) error {
	required := []struct {
		name  string
		value string
	}{
		{"TOKEN_ENCRYPTION_KEY", cfg.TokenEncryptionKey},
		{"SIGNING_SECRET", cfg.SigningSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	if len(cfg.TokenEncryptionKey) != 64 {
		return fmt.Errorf("TOKEN_ENCRYPTION_KEY must be exactly 64 hex characters (32 bytes), got %d characters", len(cfg.TokenEncryptionKey))
	}
	if _, err := hex.DecodeString(cfg.TokenEncryptionKey); err != nil {
		return errors.New("TOKEN_ENCRYPTION_KEY must be valid hex")
	}

	if cfg.WebhookRateLimit <= 0 || cfg.WebhookRateBurst <= 0 {
		return errors.New("WEBHOOK_RATE_LIMIT and WEBHOOK_RATE_BURST must be positive")
	}
	if cfg.WebhookMaxBodySize <= 0 {
		return errors.New("WEBHOOK_MAX_BODY_BYTES must be positive")
	}

	if cfg.RedisURL != "" {
		if err := validateRedisURL(cfg.RedisURL, cfg.IsProduction()); err != nil {
			return err
		}
	}

	return nil
}

func validateRedisURL(redisURL string, production bool) error {
	u, err := url.Parse(redisURL)
	if err != nil {
		return errors.New("REDIS_URL is not a valid URL")
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "redis" && scheme != "rediss" {
		return fmt.Errorf("REDIS_URL scheme must be redis or rediss, got %q", scheme)
	}
	if production && scheme != "rediss" && !isLoopback(u.Hostname()) {
		return errors.New("REDIS_URL must use rediss:// (TLS) in production")
	}
	return nil
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// Package config loads runtime configuration from the environment, reading a
// .env file first when one is present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/govalues/money"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the service and the worker.
type Config struct {
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"5s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"10s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// DatabaseURL selects the postgres store; empty means in-memory.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// RedisAddr enables the report cache and the background worker.
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	ReportCacheTTL time.Duration `envconfig:"REPORT_CACHE_TTL" default:"10m"`

	LedgerCurrency     string `envconfig:"LEDGER_CURRENCY" default:"INR"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"600"`
	DevSeed            bool   `envconfig:"DEV_SEED" default:"false"`
	IntegrityCron      string `envconfig:"INTEGRITY_CRON" default:"@every 15m"`

	// Currency is LedgerCurrency parsed.
	Currency money.Currency `ignored:"true"`
}

// Load reads configuration from environment variables. When envPath is given
// that file must exist; otherwise a .env in the working directory is read if
// present.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.RedisAddr = strings.TrimSpace(cfg.RedisAddr)
	curr, err := money.ParseCurr(strings.TrimSpace(cfg.LedgerCurrency))
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_CURRENCY %q: %w", cfg.LedgerCurrency, err)
	}
	cfg.Currency = curr
	if cfg.RateLimitPerMinute < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be >= 0")
	}
	return &cfg, nil
}

// UsePostgres reports whether DATABASE_URL is set.
func (c *Config) UsePostgres() bool { return c != nil && c.DatabaseURL != "" }

// UseRedis reports whether REDIS_ADDR is set.
func (c *Config) UseRedis() bool { return c != nil && c.RedisAddr != "" }

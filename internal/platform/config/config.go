package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	IsProduction  bool
	EnableDBCheck bool
	LogLevel      string
	LogFormat     string

	// RedisURL selects distributed run-locks; empty means in-process locks.
	RedisURL   string
	RunLockTTL time.Duration

	AccrualConcurrency int
	AccrualAnchorDay   int
	AbandonGracePeriod time.Duration
	BalanceEpsilon     decimal.Decimal

	// Warnings lists the settings that were missing or invalid and fell back to a default.
	Warnings []string
}

func (c *Config) warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("RUN_LOCK_TTL", "30m")
	viper.SetDefault("ACCRUAL_CONCURRENCY", 8)
	viper.SetDefault("ACCRUAL_ANCHOR_DAY", 1)
	viper.SetDefault("ABANDON_GRACE_PERIOD", "336h")
	viper.SetDefault("BALANCE_EPSILON", "0.01")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		cfg.warn("PGSQL_URL not set, using in-memory repositories")
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.LogLevel = viper.GetString("LOG_LEVEL")
	cfg.LogFormat = viper.GetString("LOG_FORMAT")
	if cfg.IsProduction && !viper.IsSet("LOG_FORMAT") {
		cfg.LogFormat = "json"
	}
	cfg.RedisURL = viper.GetString("REDIS_URL")

	cfg.RunLockTTL = cfg.durationOr("RUN_LOCK_TTL", 30*time.Minute)
	cfg.AbandonGracePeriod = cfg.durationOr("ABANDON_GRACE_PERIOD", 14*24*time.Hour)

	cfg.AccrualConcurrency = viper.GetInt("ACCRUAL_CONCURRENCY")
	if cfg.AccrualConcurrency < 1 {
		cfg.warn("ACCRUAL_CONCURRENCY must be positive, defaulting to 1")
		cfg.AccrualConcurrency = 1
	}

	cfg.AccrualAnchorDay = viper.GetInt("ACCRUAL_ANCHOR_DAY")
	if cfg.AccrualAnchorDay < 1 || cfg.AccrualAnchorDay > 28 {
		cfg.warn("invalid ACCRUAL_ANCHOR_DAY %d, defaulting to 1", cfg.AccrualAnchorDay)
		cfg.AccrualAnchorDay = 1
	}

	epsilonStr := viper.GetString("BALANCE_EPSILON")
	epsilon, err := decimal.NewFromString(epsilonStr)
	if err != nil || epsilon.IsNegative() {
		cfg.warn("invalid BALANCE_EPSILON %q, defaulting to 0.01", epsilonStr)
		epsilon = decimal.RequireFromString("0.01")
	}
	cfg.BalanceEpsilon = epsilon

	return cfg, nil
}

func (c *Config) durationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			c.warn("invalid %s %q, defaulting to %s", key, raw, fallback)
		}
		return fallback
	}
	return d
}

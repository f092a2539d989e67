package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_InvalidValuesFallBackWithWarnings(t *testing.T) {
	viper.Reset()
	t.Setenv("PGSQL_URL", "postgres://ledger@localhost/ledger")
	t.Setenv("ACCRUAL_ANCHOR_DAY", "31")
	t.Setenv("BALANCE_EPSILON", "abc")
	t.Setenv("RUN_LOCK_TTL", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.AccrualAnchorDay)
	assert.Equal(t, "0.01", cfg.BalanceEpsilon.String())
	assert.Equal(t, 30*time.Minute, cfg.RunLockTTL)
	require.Len(t, cfg.Warnings, 3)
	assert.Contains(t, cfg.Warnings[0], "RUN_LOCK_TTL")
	assert.Contains(t, cfg.Warnings[1], "ACCRUAL_ANCHOR_DAY")
	assert.Contains(t, cfg.Warnings[2], "BALANCE_EPSILON")
}

func TestLoadConfig_MissingDatabaseIsReported(t *testing.T) {
	viper.Reset()
	t.Setenv("PGSQL_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Empty(t, cfg.DatabaseURL)
	require.NotEmpty(t, cfg.Warnings)
	assert.Contains(t, cfg.Warnings[0], "PGSQL_URL")
}

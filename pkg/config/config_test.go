package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 1_000_000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, 0.001, cfg.Backtest.CommissionPct)
	assert.Equal(t, 5.0, cfg.Provider.RateLimit)
	assert.Equal(t, "backtest_results", cfg.Backtest.OutputDir)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("BACKTEST_INITIAL_CAPITAL", "250000")
	t.Setenv("BACKTEST_COMMISSION_PCT", "0.002")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 250_000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, 0.002, cfg.Backtest.CommissionPct)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad env", "ENV", "prod"},
		{"zero capital", "BACKTEST_INITIAL_CAPITAL", "0"},
		{"negative commission", "BACKTEST_COMMISSION_PCT", "-0.001"},
		{"max below min position", "BACKTEST_MAX_POSITION_PCT", "1"},
		{"zero rate limit", "PROVIDER_RATE_LIMIT", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))

	t.Setenv("SOME_FLOAT", "abc")
	assert.Equal(t, 1.5, getEnvAsFloat("SOME_FLOAT", 1.5))

	t.Setenv("SOME_DURATION", "abc")
	d := getEnvAsDuration("SOME_DURATION", "30s")
	assert.Equal(t, "30s", d.String())
}

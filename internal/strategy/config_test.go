package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(&cfg))
	assert.Equal(t, 15, cfg.Tiers.BuyPoolSize)
	assert.Equal(t, 20, cfg.Tiers.HoldPoolSize)
	assert.Len(t, cfg.Allocations, 4)
}

func TestAllocationFor(t *testing.T) {
	cfg := Default()

	tests := []struct {
		buySignals int
		wantBuyPct float64
	}{
		{20, 90},
		{15, 90},
		{14, 80},
		{10, 80},
		{9, 60},
		{5, 60},
		{4, 40},
		{0, 40},
	}

	for _, tt := range tests {
		step := cfg.allocationFor(tt.buySignals)
		if step.BuyPct != tt.wantBuyPct {
			t.Errorf("allocationFor(%d): buy_pct = %.0f, want %.0f",
				tt.buySignals, step.BuyPct, tt.wantBuyPct)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			"zero buy pool",
			func(c *Config) { c.Tiers.BuyPoolSize = 0 },
			"tiers.buy_pool_size",
		},
		{
			"no steps",
			func(c *Config) { c.Allocations = nil },
			"allocation_steps",
		},
		{
			"non-descending thresholds",
			func(c *Config) { c.Allocations[1].MinBuySignals = 15 },
			"allocation_steps[1].min_buy_signals",
		},
		{
			"percentages do not sum to 100",
			func(c *Config) { c.Allocations[0].CashPct = 20 },
			"allocation_steps[0]",
		},
		{
			"last step not zero",
			func(c *Config) { c.Allocations[3].MinBuySignals = 1 },
			"allocation_steps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := Validate(&cfg)
			require.Error(t, err)

			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strategy.yaml")

	yaml := `tiers:
  buy_pool_size: 10
  hold_pool_size: 12
allocation_steps:
  - min_buy_signals: 8
    buy_pct: 70
    hold_pct: 20
    cash_pct: 10
  - min_buy_signals: 0
    buy_pct: 30
    hold_pct: 50
    cash_pct: 20
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Tiers.BuyPoolSize)
	assert.Equal(t, 70.0, cfg.Allocations[0].BuyPct)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strategy.yaml")

	yaml := `tiers:
  buy_pool_size: 10
  hold_pool_size: 12
  typo_field: 3
allocation_steps:
  - min_buy_signals: 0
    buy_pct: 40
    hold_pct: 45
    cash_pct: 15
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

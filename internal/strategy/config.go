package strategy

import "fmt"

// Config defines the tiered rebalancing parameters.
type Config struct {
	Tiers       Tiers            `yaml:"tiers" json:"tiers"`
	Allocations []AllocationStep `yaml:"allocation_steps" json:"allocation_steps"`
}

// Tiers caps how many ranked signals each tier may hold.
type Tiers struct {
	BuyPoolSize  int `yaml:"buy_pool_size" json:"buy_pool_size"`
	HoldPoolSize int `yaml:"hold_pool_size" json:"hold_pool_size"`
}

// AllocationStep maps a BUY-signal count threshold to a target
// allocation. Steps are evaluated top-down; the first step whose
// MinBuySignals is satisfied wins.
type AllocationStep struct {
	MinBuySignals int     `yaml:"min_buy_signals" json:"min_buy_signals"`
	BuyPct        float64 `yaml:"buy_pct" json:"buy_pct"`
	HoldPct       float64 `yaml:"hold_pct" json:"hold_pct"`
	CashPct       float64 `yaml:"cash_pct" json:"cash_pct"`
}

// Default returns the standard aggressive allocation ladder.
func Default() Config {
	return Config{
		Tiers: Tiers{
			BuyPoolSize:  15,
			HoldPoolSize: 20,
		},
		Allocations: []AllocationStep{
			{MinBuySignals: 15, BuyPct: 90, HoldPct: 5, CashPct: 5},
			{MinBuySignals: 10, BuyPct: 80, HoldPct: 10, CashPct: 10},
			{MinBuySignals: 5, BuyPct: 60, HoldPct: 25, CashPct: 15},
			{MinBuySignals: 0, BuyPct: 40, HoldPct: 45, CashPct: 15},
		},
	}
}

// ValidationError reports an invalid strategy configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints. A failing config aborts the
// run before the simulation starts.
func Validate(cfg *Config) error {
	if cfg.Tiers.BuyPoolSize < 1 {
		return ValidationError{"tiers.buy_pool_size", "must be >= 1"}
	}
	if cfg.Tiers.HoldPoolSize < 1 {
		return ValidationError{"tiers.hold_pool_size", "must be >= 1"}
	}

	if len(cfg.Allocations) == 0 {
		return ValidationError{"allocation_steps", "at least one step required"}
	}

	prev := -1
	for i, step := range cfg.Allocations {
		field := fmt.Sprintf("allocation_steps[%d]", i)

		if step.MinBuySignals < 0 {
			return ValidationError{field + ".min_buy_signals", "must be >= 0"}
		}
		if prev >= 0 && step.MinBuySignals >= prev {
			return ValidationError{field + ".min_buy_signals", "steps must be strictly descending"}
		}
		prev = step.MinBuySignals

		if step.BuyPct < 0 || step.HoldPct < 0 || step.CashPct < 0 {
			return ValidationError{field, "percentages must be >= 0"}
		}
		sum := step.BuyPct + step.HoldPct + step.CashPct
		if sum < 99.99 || sum > 100.01 {
			return ValidationError{field, fmt.Sprintf("percentages must sum to 100, got %.2f", sum)}
		}
	}

	if cfg.Allocations[len(cfg.Allocations)-1].MinBuySignals != 0 {
		return ValidationError{"allocation_steps", "last step must cover min_buy_signals = 0"}
	}

	return nil
}

// allocationFor returns the target allocation for a BUY-signal count.
func (c *Config) allocationFor(numBuySignals int) AllocationStep {
	for _, step := range c.Allocations {
		if numBuySignals >= step.MinBuySignals {
			return step
		}
	}
	// Unreachable for a validated config: the last step has threshold 0.
	return c.Allocations[len(c.Allocations)-1]
}

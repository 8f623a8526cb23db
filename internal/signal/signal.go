package signal

import (
	"context"
	"time"
)

// Verdict is the recommendation attached to a signal.
type Verdict string

const (
	VerdictBuy  Verdict = "BUY"
	VerdictHold Verdict = "HOLD"
	VerdictSell Verdict = "SELL"
)

// Signal is the per-ticker, per-date output of a signal generator.
// A generator either returns a fully populated Signal or nothing;
// partially filled signals never cross this boundary.
type Signal struct {
	Ticker     string  `json:"ticker"`
	Verdict    Verdict `json:"verdict"`
	Score      float64 `json:"score"`      // 0 ~ 100
	Confidence float64 `json:"confidence"` // 0.0 ~ 1.0
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`
}

// Rank is the tier ordering key: score weighted by confidence.
func (s *Signal) Rank() float64 {
	return s.Score * s.Confidence
}

// Generator produces a trading signal for a ticker on a date.
// A nil signal or an error means the ticker is skipped for that day;
// generator failures are never fatal to a simulation run.
type Generator interface {
	Generate(ctx context.Context, ticker string, date time.Time) (*Signal, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, ticker string, date time.Time) (*Signal, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, ticker string, date time.Time) (*Signal, error) {
	return f(ctx, ticker, date)
}

// fallbackGenerator consults a secondary generator when the primary fails.
type fallbackGenerator struct {
	primary  Generator
	fallback Generator
}

// WithFallback wraps primary so that a failure (error or nil signal)
// is answered by fallback instead. The substitution is explicit here
// rather than hidden inside any generator.
func WithFallback(primary, fallback Generator) Generator {
	return &fallbackGenerator{primary: primary, fallback: fallback}
}

// Generate implements Generator.
func (g *fallbackGenerator) Generate(ctx context.Context, ticker string, date time.Time) (*Signal, error) {
	sig, err := g.primary.Generate(ctx, ticker, date)
	if err == nil && sig != nil {
		return sig, nil
	}

	return g.fallback.Generate(ctx, ticker, date)
}

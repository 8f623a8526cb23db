package signal

import (
	"context"
	"fmt"
	"time"
)

// Thresholds for mapping a 0-100 score to a verdict.
const (
	minScoreBuy  = 66.0
	maxScoreSell = 34.0
)

// Default exit levels relative to the entry price.
const (
	defaultStopLossPct   = 0.92 // -8%
	defaultTakeProfitPct = 1.15 // +15%
)

// Fundamentals is the per-ticker snapshot the heuristic scores.
// Ratios are absolute (PE of 12 = 12.0), margins and yields fractional.
type Fundamentals struct {
	Price         float64
	PE            float64
	PB            float64
	PS            float64
	DividendYield float64
	NetMargin     float64
	ROE           float64
	DebtToEquity  float64
	Return1M      float64 // 1-month price return, fractional
	Return3M      float64 // 3-month price return, fractional
}

// FundamentalsProvider supplies the snapshot the heuristic needs.
type FundamentalsProvider interface {
	GetFundamentals(ctx context.Context, ticker string, date time.Time) (*Fundamentals, error)
}

// Heuristic scores a ticker from valuation, quality and momentum
// sub-scores. It serves as the deterministic fallback behind the
// external analysis pipeline.
type Heuristic struct {
	provider FundamentalsProvider
}

// NewHeuristic creates a heuristic generator.
func NewHeuristic(provider FundamentalsProvider) *Heuristic {
	return &Heuristic{provider: provider}
}

// Generate implements Generator.
func (h *Heuristic) Generate(ctx context.Context, ticker string, date time.Time) (*Signal, error) {
	f, err := h.provider.GetFundamentals(ctx, ticker, date)
	if err != nil {
		return nil, fmt.Errorf("fundamentals for %s: %w", ticker, err)
	}
	if f == nil || f.Price <= 0 {
		return nil, fmt.Errorf("no usable fundamentals for %s", ticker)
	}

	score := valuationScore(f) + qualityScore(f) + momentumScore(f)

	verdict := VerdictHold
	switch {
	case score >= minScoreBuy:
		verdict = VerdictBuy
	case score <= maxScoreSell:
		verdict = VerdictSell
	}

	// Confidence grows with distance from the neutral midpoint.
	confidence := 0.5 + absf(score-50)/100
	if confidence > 1 {
		confidence = 1
	}

	return &Signal{
		Ticker:     ticker,
		Verdict:    verdict,
		Score:      score,
		Confidence: confidence,
		StopLoss:   f.Price * defaultStopLossPct,
		TakeProfit: f.Price * defaultTakeProfitPct,
	}, nil
}

// valuationScore rewards cheap stocks. 0 ~ 40 points.
func valuationScore(f *Fundamentals) float64 {
	score := 0.0

	if f.PE > 0 {
		switch {
		case f.PE < 8:
			score += 15
		case f.PE < 12:
			score += 12
		case f.PE < 15:
			score += 8
		case f.PE < 20:
			score += 4
		}
	}

	if f.PB > 0 {
		switch {
		case f.PB < 1.0:
			score += 10
		case f.PB < 2.0:
			score += 7
		case f.PB < 3.0:
			score += 4
		}
	}

	if f.PS > 0 {
		switch {
		case f.PS < 1.0:
			score += 10
		case f.PS < 2.0:
			score += 7
		case f.PS < 3.0:
			score += 4
		}
	}

	if f.DividendYield > 0 {
		switch {
		case f.DividendYield > 0.06:
			score += 5
		case f.DividendYield > 0.04:
			score += 3
		case f.DividendYield > 0.02:
			score += 1
		}
	}

	if score > 40 {
		score = 40
	}
	return score
}

// qualityScore rewards profitable, efficient companies. 0 ~ 40 points.
func qualityScore(f *Fundamentals) float64 {
	score := 0.0

	switch {
	case f.NetMargin > 0.20:
		score += 15
	case f.NetMargin > 0.15:
		score += 12
	case f.NetMargin > 0.10:
		score += 8
	case f.NetMargin > 0.05:
		score += 4
	}

	switch {
	case f.ROE > 0.20:
		score += 15
	case f.ROE > 0.15:
		score += 12
	case f.ROE > 0.10:
		score += 8
	case f.ROE > 0.05:
		score += 4
	}

	if f.DebtToEquity > 0 {
		switch {
		case f.DebtToEquity < 0.5:
			score += 10
		case f.DebtToEquity < 1.0:
			score += 7
		case f.DebtToEquity < 2.0:
			score += 3
		}
	}

	if score > 40 {
		score = 40
	}
	return score
}

// momentumScore rewards recent price strength. 0 ~ 20 points.
func momentumScore(f *Fundamentals) float64 {
	score := 0.0

	switch {
	case f.Return1M > 0.05:
		score += 10
	case f.Return1M > 0.02:
		score += 7
	case f.Return1M > 0:
		score += 4
	}

	switch {
	case f.Return3M > 0.10:
		score += 10
	case f.Return3M > 0.05:
		score += 7
	case f.Return3M > 0:
		score += 4
	}

	return score
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

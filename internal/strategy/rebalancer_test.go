package strategy

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfcamara/b3fund/internal/ledger"
	"github.com/lfcamara/b3fund/internal/signal"
	"github.com/lfcamara/b3fund/pkg/logger"
)

func testBook(capital float64) *ledger.Ledger {
	return ledger.New(ledger.Config{
		InitialCapital: capital,
		CommissionPct:  0.001,
		MinPositionPct: 0.5,
		MaxPositionPct: 15.0,
	}, logger.NewNop())
}

func buySignal(ticker string, score float64) signal.Signal {
	return signal.Signal{
		Ticker:     ticker,
		Verdict:    signal.VerdictBuy,
		Score:      score,
		Confidence: 0.8,
	}
}

func holdSignal(ticker string, score float64) signal.Signal {
	return signal.Signal{
		Ticker:     ticker,
		Verdict:    signal.VerdictHold,
		Score:      score,
		Confidence: 0.8,
	}
}

func TestRebalanceCapsBuyPool(t *testing.T) {
	book := testBook(1_000_000)
	r := NewRebalancer(Default(), logger.NewNop())
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	// 16 BUY signals, pool size 15: the lowest ranked one must not be bought.
	var signals []signal.Signal
	prices := make(map[string]float64)
	for i := 0; i < 16; i++ {
		ticker := fmt.Sprintf("TIC%02d", i)
		signals = append(signals, buySignal(ticker, float64(90-i)))
		prices[ticker] = 10
	}

	outcome := r.Rebalance(book, signals, prices, date)

	assert.Equal(t, 16, outcome.BuySignals)
	assert.Equal(t, 90.0, outcome.Allocation.BuyPct)
	assert.Len(t, outcome.Bought, 15)
	assert.Equal(t, 15, book.NumPositions())
	assert.False(t, book.Holds("TIC15"), "lowest ranked signal must be cut")

	// 90% across 15 positions = 6% each: 60,000 at 10.00 = 6000 shares.
	pos, ok := book.Position("TIC00")
	require.True(t, ok)
	assert.Equal(t, int64(6000), pos.Shares)
}

func TestRebalanceLiquidatesOutsideKeepSet(t *testing.T) {
	book := testBook(1_000_000)
	r := NewRebalancer(Default(), logger.NewNop())
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	require.NotNil(t, book.Buy("OLD1", 20, 5, date, 0, 0, ledger.ReasonRebalance))
	require.NotNil(t, book.Buy("KEEP", 30, 5, date, 0, 0, ledger.ReasonRebalance))

	signals := []signal.Signal{
		buySignal("KEEP", 80),
		buySignal("NEW1", 75),
	}
	prices := map[string]float64{"OLD1": 21, "KEEP": 31, "NEW1": 10}

	outcome := r.Rebalance(book, signals, prices, date.AddDate(0, 0, 7))

	require.Len(t, outcome.Sold, 1)
	assert.Equal(t, "OLD1", outcome.Sold[0].Ticker)
	assert.Equal(t, ledger.ReasonNoSignal, outcome.Sold[0].Reason)
	assert.False(t, book.Holds("OLD1"))

	// KEEP stays untouched, NEW1 opened.
	assert.True(t, book.Holds("KEEP"))
	assert.True(t, book.Holds("NEW1"))
	require.Len(t, outcome.Bought, 1)
	assert.Equal(t, "NEW1", outcome.Bought[0].Ticker)
}

func TestRebalanceNeverResizesHeldKeepMembers(t *testing.T) {
	book := testBook(1_000_000)
	r := NewRebalancer(Default(), logger.NewNop())
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	require.NotNil(t, book.Buy("KEEP", 30, 5, date, 0, 0, ledger.ReasonRebalance))
	pos, _ := book.Position("KEEP")
	sharesBefore := pos.Shares

	signals := []signal.Signal{buySignal("KEEP", 95)}
	prices := map[string]float64{"KEEP": 45}

	outcome := r.Rebalance(book, signals, prices, date.AddDate(0, 0, 7))

	assert.Empty(t, outcome.Sold)
	assert.Empty(t, outcome.Bought)
	pos, _ = book.Position("KEEP")
	assert.Equal(t, sharesBefore, pos.Shares)
}

func TestRebalanceHoldTier(t *testing.T) {
	book := testBook(1_000_000)
	r := NewRebalancer(Default(), logger.NewNop())
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	signals := []signal.Signal{
		buySignal("BUY1", 80),
		holdSignal("HLD1", 55),
		holdSignal("HLD2", 50),
	}
	prices := map[string]float64{"BUY1": 10, "HLD1": 20, "HLD2": 20}

	outcome := r.Rebalance(book, signals, prices, date)

	// 1 BUY signal -> lowest ladder step: 40% buy / 45% hold.
	assert.Equal(t, 40.0, outcome.Allocation.BuyPct)
	assert.Equal(t, 45.0, outcome.Allocation.HoldPct)

	require.Len(t, outcome.Bought, 3)
	assert.Equal(t, ledger.ReasonRebalance, outcome.Bought[0].Reason)
	assert.Equal(t, ledger.ReasonHoldExposure, outcome.Bought[1].Reason)
	assert.Equal(t, ledger.ReasonHoldExposure, outcome.Bought[2].Reason)
}

func TestRebalanceSellVerdictLiquidates(t *testing.T) {
	book := testBook(1_000_000)
	r := NewRebalancer(Default(), logger.NewNop())
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	require.NotNil(t, book.Buy("BAD1", 20, 5, date, 0, 0, ledger.ReasonRebalance))

	signals := []signal.Signal{
		{Ticker: "BAD1", Verdict: signal.VerdictSell, Score: 20, Confidence: 0.9},
	}
	prices := map[string]float64{"BAD1": 19}

	outcome := r.Rebalance(book, signals, prices, date.AddDate(0, 0, 7))

	// SELL verdicts never enter a tier, so the held position is cut.
	require.Len(t, outcome.Sold, 1)
	assert.Equal(t, "BAD1", outcome.Sold[0].Ticker)
	assert.Equal(t, 0, book.NumPositions())
}

func TestRebalanceSkipsMissingPrices(t *testing.T) {
	book := testBook(1_000_000)
	r := NewRebalancer(Default(), logger.NewNop())
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	require.NotNil(t, book.Buy("HELD", 20, 5, date, 0, 0, ledger.ReasonRebalance))

	signals := []signal.Signal{buySignal("MISS", 80)}
	prices := map[string]float64{} // no prices today

	outcome := r.Rebalance(book, signals, prices, date.AddDate(0, 0, 7))

	// Held position outside the keep set survives: no price to sell at.
	assert.Empty(t, outcome.Sold)
	assert.Empty(t, outcome.Bought)
	assert.True(t, book.Holds("HELD"))
}

func TestRankTierStable(t *testing.T) {
	tier := []signal.Signal{
		{Ticker: "AAA", Verdict: signal.VerdictBuy, Score: 70, Confidence: 0.8},
		{Ticker: "BBB", Verdict: signal.VerdictBuy, Score: 80, Confidence: 0.7},
		{Ticker: "CCC", Verdict: signal.VerdictBuy, Score: 70, Confidence: 0.8},
	}

	rankTier(tier)

	// AAA and CCC tie at 56: encounter order preserved; BBB ties too (56).
	assert.Equal(t, "AAA", tier[0].Ticker)
	assert.Equal(t, "BBB", tier[1].Ticker)
	assert.Equal(t, "CCC", tier[2].Ticker)
}

func TestPerPositionPct(t *testing.T) {
	tests := []struct {
		tierPct    float64
		numSignals int
		poolSize   int
		want       float64
	}{
		{90, 15, 15, 6},
		{90, 20, 15, 6},
		{90, 10, 15, 9},
		{40, 0, 15, 40},
		{45, 30, 20, 2.25},
	}

	for _, tt := range tests {
		got := perPositionPct(tt.tierPct, tt.numSignals, tt.poolSize)
		if got != tt.want {
			t.Errorf("perPositionPct(%.0f, %d, %d) = %v, want %v",
				tt.tierPct, tt.numSignals, tt.poolSize, got, tt.want)
		}
	}
}

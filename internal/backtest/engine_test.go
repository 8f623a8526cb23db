package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfcamara/b3fund/internal/ledger"
	"github.com/lfcamara/b3fund/internal/marketdata"
	"github.com/lfcamara/b3fund/internal/signal"
	"github.com/lfcamara/b3fund/internal/strategy"
	"github.com/lfcamara/b3fund/pkg/logger"
)

// fakeProvider serves pre-built price and benchmark data.
type fakeProvider struct {
	table     *marketdata.PriceTable
	benchmark *marketdata.BenchmarkSeries
}

func (p *fakeProvider) GetPrices(ctx context.Context, tickers []string, start, end time.Time) (*marketdata.PriceTable, error) {
	return p.table, nil
}

func (p *fakeProvider) GetBenchmarkRate(ctx context.Context, start, end time.Time) (*marketdata.BenchmarkSeries, error) {
	return p.benchmark, nil
}

// tradingWeek returns Mon Mar 4 .. Mon Mar 11 2024, weekdays only.
func tradingWeek() []time.Time {
	return []time.Time{
		day(2024, time.March, 4),
		day(2024, time.March, 5),
		day(2024, time.March, 6),
		day(2024, time.March, 7),
		day(2024, time.March, 8),
		day(2024, time.March, 11),
	}
}

func buildProvider(t *testing.T, prices map[string][]float64, rate float64) *fakeProvider {
	t.Helper()
	calendar := tradingWeek()

	series := make(map[string][]marketdata.PricePoint)
	for ticker, closes := range prices {
		require.Len(t, closes, len(calendar))
		for i, c := range closes {
			series[ticker] = append(series[ticker], marketdata.PricePoint{Date: calendar[i], Close: c})
		}
	}

	table := marketdata.BuildTable(series)
	table.Clean()

	rates := make([]float64, len(calendar))
	for i := range rates {
		rates[i] = rate
	}

	return &fakeProvider{
		table:     table,
		benchmark: marketdata.NewBenchmarkSeries(calendar, rates),
	}
}

func testEngine(provider marketdata.Provider, gen signal.Generator) *Engine {
	log := logger.NewNop()
	pool := signal.NewPool(gen, 2, log)
	rebalancer := strategy.NewRebalancer(strategy.Default(), log)
	return NewEngine(provider, pool, rebalancer, log)
}

func testParams() Params {
	return Params{
		Tickers:   []string{"AAA", "BBB"},
		Start:     day(2024, time.March, 4),
		End:       day(2024, time.March, 11),
		Frequency: FrequencyWeekly,
		Ledger: ledger.Config{
			InitialCapital: 100_000,
			CommissionPct:  0.001,
			MinPositionPct: 2.0,
			MaxPositionPct: 10.0,
		},
	}
}

func TestParamsValidate(t *testing.T) {
	valid := testParams()
	require.NoError(t, valid.Validate())

	noTickers := testParams()
	noTickers.Tickers = nil
	assert.Error(t, noTickers.Validate())

	badDates := testParams()
	badDates.End = badDates.Start
	assert.Error(t, badDates.Validate())

	badFreq := testParams()
	badFreq.Frequency = "daily"
	assert.Error(t, badFreq.Validate())

	noCapital := testParams()
	noCapital.Ledger.InitialCapital = 0
	assert.Error(t, noCapital.Validate())
}

func TestRunRecordsEveryDay(t *testing.T) {
	provider := buildProvider(t, map[string][]float64{
		"AAA": {10, 10, 10, 10, 10, 10},
		"BBB": {20, 20, 20, 20, 20, 20},
	}, 0.001)

	gen := signal.GeneratorFunc(func(ctx context.Context, ticker string, date time.Time) (*signal.Signal, error) {
		if ticker == "AAA" {
			return &signal.Signal{Ticker: ticker, Verdict: signal.VerdictBuy, Score: 80, Confidence: 0.9}, nil
		}
		return &signal.Signal{Ticker: ticker, Verdict: signal.VerdictHold, Score: 50, Confidence: 0.5}, nil
	})

	engine := testEngine(provider, gen)
	result, err := engine.Run(context.Background(), testParams())
	require.NoError(t, err)

	assert.Len(t, result.Snapshots, 6)
	require.Len(t, result.RebalanceDates, 2)
	assert.Equal(t, day(2024, time.March, 4), result.RebalanceDates[0])
	assert.Equal(t, day(2024, time.March, 11), result.RebalanceDates[1])

	require.Len(t, result.Decisions, 2)
	assert.Equal(t, 1, result.Decisions[0].BuySignals)
	assert.Equal(t, 1, result.Decisions[0].HoldSignals)

	// Each decision keeps the day's ranked per-ticker signals.
	ranked := result.Decisions[0].Signals
	require.Len(t, ranked, 2)
	assert.Equal(t, "AAA", ranked[0].Ticker)
	assert.Equal(t, signal.VerdictBuy, ranked[0].Verdict)
	assert.Equal(t, 0.9, ranked[0].Confidence)
	assert.Equal(t, "BBB", ranked[1].Ticker)
	assert.Equal(t, signal.VerdictHold, ranked[1].Verdict)

	// AAA bought on the first Monday, BBB on HOLD exposure.
	require.NotEmpty(t, result.Trades)
	assert.Equal(t, "AAA", result.Trades[0].Ticker)
	assert.Equal(t, ledger.ActionBuy, result.Trades[0].Action)

	// Cash accrues before any trade: snapshots carry the compounding.
	first := result.Snapshots[0]
	assert.Greater(t, first.TotalValue, 100_000.0)

	assert.Equal(t, 6, result.Metrics.TradingDays)
	assert.Equal(t, result.Snapshots[5].TotalValue, result.Metrics.FinalValue)

	// Returns are measured against the committed capital, so the first
	// day's accrual is part of the performance.
	finalValue := result.Snapshots[5].TotalValue
	assert.Equal(t, 100_000.0, result.Metrics.InitialValue)
	assert.InDelta(t, (finalValue/100_000-1)*100, result.Metrics.TotalReturnPct, 1e-9)
	assert.Greater(t, result.Metrics.TotalReturnPct, 0.0)
}

func TestRunStopOutVisibleToSameDayRebalance(t *testing.T) {
	// AAA breaches its stop on the second Monday; the same day's
	// rebalance sees the freed slot and re-buys it.
	provider := buildProvider(t, map[string][]float64{
		"AAA": {10, 10, 10, 10, 10, 9},
		"BBB": {20, 20, 20, 20, 20, 20},
	}, 0)

	gen := signal.GeneratorFunc(func(ctx context.Context, ticker string, date time.Time) (*signal.Signal, error) {
		if ticker != "AAA" {
			return nil, nil
		}
		return &signal.Signal{
			Ticker:     ticker,
			Verdict:    signal.VerdictBuy,
			Score:      80,
			Confidence: 0.9,
			StopLoss:   9.0,
		}, nil
	})

	engine := testEngine(provider, gen)
	result, err := engine.Run(context.Background(), testParams())
	require.NoError(t, err)

	require.Len(t, result.Trades, 3)

	assert.Equal(t, ledger.ActionBuy, result.Trades[0].Action)
	assert.Equal(t, day(2024, time.March, 4), result.Trades[0].Date)

	assert.Equal(t, ledger.ActionSell, result.Trades[1].Action)
	assert.Equal(t, ledger.ReasonStopLoss, result.Trades[1].Reason)
	assert.Equal(t, day(2024, time.March, 11), result.Trades[1].Date)
	assert.Equal(t, 9.0, result.Trades[1].Price)

	assert.Equal(t, ledger.ActionBuy, result.Trades[2].Action)
	assert.Equal(t, day(2024, time.March, 11), result.Trades[2].Date)
	assert.Equal(t, 9.0, result.Trades[2].Price)
}

func TestRunLiquidatesOnLostSignal(t *testing.T) {
	provider := buildProvider(t, map[string][]float64{
		"AAA": {10, 10, 10, 10, 10, 10},
		"BBB": {20, 20, 20, 20, 20, 20},
	}, 0)

	// AAA gets a BUY on the first Monday only.
	gen := signal.GeneratorFunc(func(ctx context.Context, ticker string, date time.Time) (*signal.Signal, error) {
		if ticker == "AAA" && date.Equal(day(2024, time.March, 4)) {
			return &signal.Signal{Ticker: ticker, Verdict: signal.VerdictBuy, Score: 80, Confidence: 0.9}, nil
		}
		return nil, nil
	})

	engine := testEngine(provider, gen)
	result, err := engine.Run(context.Background(), testParams())
	require.NoError(t, err)

	require.Len(t, result.Trades, 2)
	assert.Equal(t, ledger.ActionSell, result.Trades[1].Action)
	assert.Equal(t, ledger.ReasonNoSignal, result.Trades[1].Reason)
	assert.Equal(t, day(2024, time.March, 11), result.Trades[1].Date)
	assert.Empty(t, result.FinalPositions)
}

func TestRunInvalidParams(t *testing.T) {
	engine := testEngine(&fakeProvider{}, signal.GeneratorFunc(
		func(ctx context.Context, ticker string, date time.Time) (*signal.Signal, error) {
			return nil, nil
		}))

	params := testParams()
	params.Frequency = "hourly"
	_, err := engine.Run(context.Background(), params)
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	provider := buildProvider(t, map[string][]float64{
		"AAA": {10, 10, 10, 10, 10, 10},
	}, 0)

	engine := testEngine(provider, signal.GeneratorFunc(
		func(ctx context.Context, ticker string, date time.Time) (*signal.Signal, error) {
			return nil, nil
		}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	params := testParams()
	params.Tickers = []string{"AAA"}
	_, err := engine.Run(ctx, params)
	assert.ErrorIs(t, err, context.Canceled)
}

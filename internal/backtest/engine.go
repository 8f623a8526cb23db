package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lfcamara/b3fund/internal/ledger"
	"github.com/lfcamara/b3fund/internal/marketdata"
	"github.com/lfcamara/b3fund/internal/metrics"
	"github.com/lfcamara/b3fund/internal/signal"
	"github.com/lfcamara/b3fund/internal/strategy"
	"github.com/lfcamara/b3fund/pkg/logger"
)

// Params defines one simulation run. Invalid params fail before the
// daily loop starts.
type Params struct {
	Tickers   []string
	Start     time.Time
	End       time.Time
	Frequency Frequency

	Ledger ledger.Config
}

// Validate checks the run parameters.
func (p Params) Validate() error {
	if len(p.Tickers) == 0 {
		return fmt.Errorf("no tickers given")
	}
	if !p.End.After(p.Start) {
		return fmt.Errorf("end date %s must be after start date %s",
			p.End.Format("2006-01-02"), p.Start.Format("2006-01-02"))
	}
	if _, err := ParseFrequency(string(p.Frequency)); err != nil {
		return err
	}
	if p.Ledger.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be > 0")
	}
	return nil
}

// Decision records what the strategy saw and did on one rebalance day.
// Signals holds the day's full signal set ranked by score times
// confidence, preserving the per-ticker verdicts and exit levels.
type Decision struct {
	Date        time.Time               `json:"date"`
	Signals     []signal.Signal         `json:"signals"`
	BuySignals  int                     `json:"buy_signals"`
	HoldSignals int                     `json:"hold_signals"`
	Allocation  strategy.AllocationStep `json:"allocation"`
	Sold        int                     `json:"sold"`
	Bought      int                     `json:"bought"`
}

// Result is the complete output of one simulation run.
type Result struct {
	Params         Params            `json:"params"`
	Snapshots      []ledger.Snapshot `json:"snapshots"`
	Trades         []ledger.Trade    `json:"trades"`
	FinalPositions []ledger.Position `json:"final_positions"`
	Metrics        metrics.Report    `json:"metrics"`
	RebalanceDates []time.Time       `json:"rebalance_dates"`
	Decisions      []Decision        `json:"decisions"`
	StartedAt      time.Time         `json:"started_at"`
	Elapsed        time.Duration     `json:"elapsed"`
}

// Engine drives the day-by-day simulation. Each day follows a fixed
// order: mark prices, accrue cash, check stops, rebalance if due, then
// record the snapshot. Stop-triggered exits are therefore visible to the
// same day's rebalance.
type Engine struct {
	provider   marketdata.Provider
	signals    *signal.Pool
	rebalancer *strategy.Rebalancer
	logger     *logger.Logger
}

// NewEngine creates a simulation engine.
func NewEngine(provider marketdata.Provider, signals *signal.Pool, rebalancer *strategy.Rebalancer, log *logger.Logger) *Engine {
	return &Engine{
		provider:   provider,
		signals:    signals,
		rebalancer: rebalancer,
		logger:     log.WithField("module", "backtest"),
	}
}

// Run executes the simulation. Data problems surface before the first
// simulated day; once the loop starts, only context cancellation stops it.
func (e *Engine) Run(ctx context.Context, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest params: %w", err)
	}

	startedAt := time.Now()

	table, err := e.provider.GetPrices(ctx, params.Tickers, params.Start, params.End)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	if table.IsEmpty() {
		return nil, fmt.Errorf("no price data between %s and %s",
			params.Start.Format("2006-01-02"), params.End.Format("2006-01-02"))
	}

	benchmark, err := e.provider.GetBenchmarkRate(ctx, params.Start, params.End)
	if err != nil {
		return nil, fmt.Errorf("load benchmark: %w", err)
	}

	calendar := table.Dates()
	rates := benchmark.AlignTo(calendar)
	rebalanceDates := RebalanceDates(calendar, params.Frequency)
	isRebalanceDay := make(map[time.Time]bool, len(rebalanceDates))
	for _, d := range rebalanceDates {
		isRebalanceDay[d] = true
	}

	e.logger.WithFields(map[string]interface{}{
		"tickers":         len(table.Tickers()),
		"days":            len(calendar),
		"rebalance_dates": len(rebalanceDates),
		"frequency":       params.Frequency,
	}).Info("Backtest started")

	book := ledger.New(params.Ledger, e.logger)
	var decisions []Decision

	for i, date := range calendar {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		prices := table.Row(i)

		book.UpdatePrices(prices)
		book.AccrueCash(date, rates[i])
		book.CheckStops(date)

		if isRebalanceDay[date] {
			signals := e.signals.Collect(ctx, table.Tickers(), date)
			outcome := e.rebalancer.Rebalance(book, signals, prices, date)
			decisions = append(decisions, Decision{
				Date:        date,
				Signals:     rankSignals(signals),
				BuySignals:  outcome.BuySignals,
				HoldSignals: outcome.HoldSignals,
				Allocation:  outcome.Allocation,
				Sold:        len(outcome.Sold),
				Bought:      len(outcome.Bought),
			})
		}

		book.RecordState(date)
	}

	result := &Result{
		Params:         params,
		Snapshots:      book.Snapshots(),
		Trades:         book.Trades(),
		FinalPositions: book.Positions(),
		RebalanceDates: rebalanceDates,
		Decisions:      decisions,
		StartedAt:      startedAt,
		Elapsed:        time.Since(startedAt),
	}
	result.Metrics = computeMetrics(result, rates)

	e.logger.WithFields(map[string]interface{}{
		"final_value":  result.Metrics.FinalValue,
		"total_return": result.Metrics.TotalReturnPct,
		"max_drawdown": result.Metrics.MaxDrawdownPct,
		"trades":       len(result.Trades),
		"elapsed":      result.Elapsed.String(),
	}).Info("Backtest finished")

	return result, nil
}

// rankSignals orders a copy of the day's signals descending by rank,
// ties keeping collection order.
func rankSignals(signals []signal.Signal) []signal.Signal {
	ranked := make([]signal.Signal, len(signals))
	copy(ranked, signals)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rank() > ranked[j].Rank()
	})
	return ranked
}

func computeMetrics(result *Result, rates []float64) metrics.Report {
	values := make([]float64, len(result.Snapshots))
	for i, snap := range result.Snapshots {
		values[i] = snap.TotalValue
	}

	var pnls []float64
	for _, trade := range result.Trades {
		if trade.Action == ledger.ActionSell {
			pnls = append(pnls, trade.RealizedPnL)
		}
	}

	return metrics.Compute(result.Params.Ledger.InitialCapital, values, rates, pnls)
}

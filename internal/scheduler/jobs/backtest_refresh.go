package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/lfcamara/b3fund/internal/backtest"
	"github.com/lfcamara/b3fund/internal/report"
	"github.com/lfcamara/b3fund/pkg/logger"
)

// BacktestRefreshJob re-runs the simulation over a trailing window and
// refreshes the saved report artifacts.
type BacktestRefreshJob struct {
	engine   *backtest.Engine
	writer   *report.Writer
	tickers  []string
	months   int
	params   backtest.Params
	logger   *logger.Logger
}

// NewBacktestRefreshJob creates the nightly refresh job. params supplies
// the ledger configuration and frequency; dates are recomputed each run.
func NewBacktestRefreshJob(engine *backtest.Engine, writer *report.Writer, tickers []string, trailingMonths int, params backtest.Params, log *logger.Logger) *BacktestRefreshJob {
	return &BacktestRefreshJob{
		engine:  engine,
		writer:  writer,
		tickers: tickers,
		months:  trailingMonths,
		params:  params,
		logger:  log,
	}
}

// Name returns the job name.
func (j *BacktestRefreshJob) Name() string {
	return "backtest_refresh"
}

// Schedule runs after the nightly price load, 5 AM Tuesday through
// Saturday (trading days have closed by then).
func (j *BacktestRefreshJob) Schedule() string {
	return "0 0 5 * * 2-6"
}

// Run executes the refresh.
func (j *BacktestRefreshJob) Run(ctx context.Context) error {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, -j.months, 0)

	params := j.params
	params.Tickers = j.tickers
	params.Start = start
	params.End = end

	j.logger.WithFields(map[string]interface{}{
		"start":   start.Format("2006-01-02"),
		"end":     end.Format("2006-01-02"),
		"tickers": len(j.tickers),
	}).Info("Starting scheduled backtest refresh")

	result, err := j.engine.Run(ctx, params)
	if err != nil {
		return fmt.Errorf("backtest refresh run: %w", err)
	}

	dir, err := j.writer.Write(result)
	if err != nil {
		return fmt.Errorf("backtest refresh report: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"dir":          dir,
		"total_return": result.Metrics.TotalReturnPct,
	}).Info("Backtest refresh completed")

	return nil
}

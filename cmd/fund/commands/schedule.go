package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lfcamara/b3fund/internal/backtest"
	"github.com/lfcamara/b3fund/internal/ledger"
	"github.com/lfcamara/b3fund/internal/report"
	"github.com/lfcamara/b3fund/internal/scheduler"
	"github.com/lfcamara/b3fund/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the job scheduler",
	Long: `Runs the cron scheduler with the nightly backtest refresh job.

The refresh job re-runs the simulation over a trailing window each
trading night and rewrites the report artifacts the API serves.

Example:
  go run ./cmd/fund schedule --tickers PETR4,VALE3,ITUB4 --months 18`,
	RunE: runSchedule,
}

var (
	scheduleTickers   string
	scheduleMonths    int
	scheduleFrequency string
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	// Flags
	scheduleCmd.Flags().StringVar(&scheduleTickers, "tickers", "", "comma-separated ticker list (required)")
	scheduleCmd.Flags().IntVar(&scheduleMonths, "months", 18, "trailing window in months")
	scheduleCmd.Flags().StringVar(&scheduleFrequency, "frequency", "weekly", "rebalance frequency (weekly|monthly|quarterly)")

	scheduleCmd.MarkFlagRequired("tickers")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	frequency, err := backtest.ParseFrequency(scheduleFrequency)
	if err != nil {
		return err
	}

	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.db.Close()

	engine, err := d.buildEngine()
	if err != nil {
		return err
	}

	writer := report.NewWriter(d.cfg.Backtest.OutputDir, d.log)
	params := backtest.Params{
		Frequency: frequency,
		Ledger: ledger.Config{
			InitialCapital: d.cfg.Backtest.InitialCapital,
			CommissionPct:  d.cfg.Backtest.CommissionPct,
			MinPositionPct: d.cfg.Backtest.MinPositionPct,
			MaxPositionPct: d.cfg.Backtest.MaxPositionPct,
		},
	}

	sched := scheduler.New(d.log)
	job := jobs.NewBacktestRefreshJob(engine, writer, splitTickers(scheduleTickers), scheduleMonths, params, d.log)
	if err := sched.AddJob(job); err != nil {
		return err
	}

	sched.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

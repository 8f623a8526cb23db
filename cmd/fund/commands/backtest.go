package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lfcamara/b3fund/internal/backtest"
	"github.com/lfcamara/b3fund/internal/ledger"
	"github.com/lfcamara/b3fund/internal/report"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Portfolio backtesting",
	Long: `Simulates the tiered rebalancing strategy over historical data.

The simulation validates:
- Strategy returns against CDI
- Risk metrics (Sharpe, max drawdown, volatility)
- Win rate and trade statistics

Example:
  go run ./cmd/fund backtest run --from 2023-01-02 --to 2024-06-28 --tickers PETR4,VALE3,ITUB4`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a backtest",
		Long: `Runs the simulation over the given period and writes the report.

Example:
  go run ./cmd/fund backtest run --from 2023-01-02 --to 2024-06-28 --tickers PETR4,VALE3,ITUB4
  go run ./cmd/fund backtest run --from 2023-01-02 --capital 500000 --frequency monthly`,
		RunE: runBacktest,
	}

	// Flags
	backtestFrom       string
	backtestTo         string
	backtestTickers    string
	backtestFrequency  string
	backtestCapital    float64
	backtestCommission float64
	backtestOutput     string
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	// Flags
	backtestRunCmd.Flags().StringVar(&backtestFrom, "from", "", "start date (YYYY-MM-DD, required)")
	backtestRunCmd.Flags().StringVar(&backtestTo, "to", "", "end date (YYYY-MM-DD, default: today)")
	backtestRunCmd.Flags().StringVar(&backtestTickers, "tickers", "", "comma-separated ticker list (required)")
	backtestRunCmd.Flags().StringVar(&backtestFrequency, "frequency", "weekly", "rebalance frequency (weekly|monthly|quarterly)")
	backtestRunCmd.Flags().Float64Var(&backtestCapital, "capital", 0, "initial capital (default: from env)")
	backtestRunCmd.Flags().Float64Var(&backtestCommission, "commission", -1, "commission rate (default: from env)")
	backtestRunCmd.Flags().StringVar(&backtestOutput, "output", "", "report output directory (default: from env)")

	backtestRunCmd.MarkFlagRequired("from")
	backtestRunCmd.MarkFlagRequired("tickers")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	startDate, err := time.Parse("2006-01-02", backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	endDate := time.Now().UTC()
	if backtestTo != "" {
		endDate, err = time.Parse("2006-01-02", backtestTo)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

	frequency, err := backtest.ParseFrequency(backtestFrequency)
	if err != nil {
		return err
	}

	tickers := splitTickers(backtestTickers)
	if len(tickers) == 0 {
		return fmt.Errorf("no tickers given")
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

	capital := d.cfg.Backtest.InitialCapital
	if backtestCapital > 0 {
		capital = backtestCapital
	}
	commission := d.cfg.Backtest.CommissionPct
	if backtestCommission >= 0 {
		commission = backtestCommission
	}
	outputDir := d.cfg.Backtest.OutputDir
	if backtestOutput != "" {
		outputDir = backtestOutput
	}

	params := backtest.Params{
		Tickers:   tickers,
		Start:     startDate,
		End:       endDate,
		Frequency: frequency,
		Ledger: ledger.Config{
			InitialCapital: capital,
			CommissionPct:  commission,
			MinPositionPct: d.cfg.Backtest.MinPositionPct,
			MaxPositionPct: d.cfg.Backtest.MaxPositionPct,
		},
	}

	fmt.Printf("Period:     %s ~ %s\n", startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	fmt.Printf("Tickers:    %d\n", len(tickers))
	fmt.Printf("Capital:    %s\n", formatMoney(capital))
	fmt.Printf("Frequency:  %s\n", frequency)
	fmt.Println()

	result, err := engine.Run(cmd.Context(), params)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printBacktestResult(result)

	writer := report.NewWriter(outputDir, d.log)
	dir, err := writer.Write(result)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("\nReport written to %s\n", dir)

	return nil
}

func splitTickers(s string) []string {
	var tickers []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.ToUpper(strings.TrimSpace(part)); t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}

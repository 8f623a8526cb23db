package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/lfcamara/b3fund/internal/marketdata"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Ticker universe tools",
}

var (
	universeCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "Validate ticker data quality",
		Long: `Loads the price history for each ticker and reports which ones
pass universe validation: enough history, few gaps, positive prices.

Example:
  go run ./cmd/fund universe check --tickers PETR4,VALE3,ITUB4 --from 2023-01-02`,
		RunE: runUniverseCheck,
	}

	// Flags
	universeTickers string
	universeFrom    string
	universeTo      string
)

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeCheckCmd)

	// Flags
	universeCheckCmd.Flags().StringVar(&universeTickers, "tickers", "", "comma-separated ticker list (required)")
	universeCheckCmd.Flags().StringVar(&universeFrom, "from", "", "start date (YYYY-MM-DD, required)")
	universeCheckCmd.Flags().StringVar(&universeTo, "to", "", "end date (YYYY-MM-DD, default: today)")

	universeCheckCmd.MarkFlagRequired("tickers")
	universeCheckCmd.MarkFlagRequired("from")
}

func runUniverseCheck(cmd *cobra.Command, args []string) error {
	startDate, err := time.Parse("2006-01-02", universeFrom)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	endDate := time.Now().UTC()
	if universeTo != "" {
		endDate, err = time.Parse("2006-01-02", universeTo)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

	tickers := splitTickers(universeTickers)
	if len(tickers) == 0 {
		return fmt.Errorf("no tickers given")
	}

	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.db.Close()

	report, err := d.service.CheckTickers(cmd.Context(), tickers, startDate, endDate)
	if err != nil {
		return err
	}

	fmt.Printf("Valid tickers: %d of %d\n\n", len(report.Valid), len(tickers))
	for _, ticker := range report.Valid {
		fmt.Printf("  OK    %s\n", ticker)
	}

	excluded := make([]string, 0, len(report.Excluded))
	for ticker := range report.Excluded {
		excluded = append(excluded, ticker)
	}
	sort.Strings(excluded)
	for _, ticker := range excluded {
		fmt.Printf("  SKIP  %-8s %s\n", ticker, report.Excluded[ticker])
	}

	if err := marketdata.CheckUniverse(report); err != nil {
		return err
	}
	return nil
}

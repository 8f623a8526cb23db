package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fund",
	Short: "B3 fund simulator - tiered rebalancing backtests",
	Long: `B3 fund simulator

Day-by-day portfolio simulation over B3 equities with a tiered
rebalancing strategy, CDI cash accrual and stop/take exits.

Usage:
  go run ./cmd/fund [command]

Examples:
  go run ./cmd/fund backtest run --from 2023-01-02 --to 2024-06-28 --tickers PETR4,VALE3,ITUB4
  go run ./cmd/fund universe check --tickers-file tickers.txt
  go run ./cmd/fund serve
  go run ./cmd/fund schedule`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy config file (YAML, default: built-in ladder)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

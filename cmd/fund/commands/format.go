package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lfcamara/b3fund/internal/backtest"
)

// formatMoney renders a value with thousands separators, two decimals.
func formatMoney(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)

	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign = "-"
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	return sign + b.String() + "." + parts[1]
}

// printBacktestResult prints the run summary table.
func printBacktestResult(result *backtest.Result) {
	m := result.Metrics

	fmt.Println("===========================================================")
	fmt.Println("  Backtest Result")
	fmt.Println("-----------------------------------------------------------")
	fmt.Printf("  Trading days     : %d\n", m.TradingDays)
	fmt.Printf("  Rebalances       : %d\n", len(result.RebalanceDates))
	fmt.Printf("  Initial value    : %s\n", formatMoney(m.InitialValue))
	fmt.Printf("  Final value      : %s\n", formatMoney(m.FinalValue))
	fmt.Println("-----------------------------------------------------------")
	fmt.Printf("  Total return     : %+.2f%%\n", m.TotalReturnPct)
	fmt.Printf("  Annualized       : %+.2f%%\n", m.AnnualizedReturnPct)
	fmt.Printf("  CDI return       : %+.2f%%\n", m.CDIReturnPct)
	fmt.Printf("  Outperformance   : %+.2f%%\n", m.OutperformancePct)
	fmt.Printf("  Sharpe ratio     : %.2f\n", m.SharpeRatio)
	fmt.Printf("  Max drawdown     : %.2f%%\n", m.MaxDrawdownPct)
	fmt.Printf("  Volatility       : %.2f%%\n", m.VolatilityPct)
	fmt.Println("-----------------------------------------------------------")
	fmt.Printf("  Trades           : %d\n", m.TotalTrades)
	fmt.Printf("  Win rate         : %.1f%%\n", m.WinRatePct)
	fmt.Printf("  Profit factor    : %.2f\n", m.ProfitFactor)
	fmt.Printf("  Open positions   : %d\n", len(result.FinalPositions))
	fmt.Printf("  Elapsed          : %s\n", result.Elapsed)
	fmt.Println("===========================================================")
}

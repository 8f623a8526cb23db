// Package metrics computes performance statistics from a completed
// simulation's portfolio value series.
package metrics

import (
	"math"
)

// TradingDaysPerYear is the annualization base for daily series.
const TradingDaysPerYear = 252

// Report is the full performance summary of one simulation.
type Report struct {
	TotalReturnPct      float64 `json:"total_return_pct"`
	AnnualizedReturnPct float64 `json:"annualized_return_pct"`
	SharpeRatio         float64 `json:"sharpe_ratio"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
	VolatilityPct       float64 `json:"volatility_pct"`
	CDIReturnPct        float64 `json:"cdi_return_pct"`
	OutperformancePct   float64 `json:"outperformance_pct"`

	TotalTrades  int     `json:"total_trades"`
	WinRatePct   float64 `json:"win_rate_pct"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	ProfitFactor float64 `json:"profit_factor"`
	TradingDays  int     `json:"trading_days"`
	FinalValue   float64 `json:"final_value"`
	InitialValue float64 `json:"initial_value"`
}

// Compute builds a report from the starting capital, the daily portfolio
// value series, the aligned benchmark rate series and the realized trade
// PnLs. Returns are measured against the capital committed before the
// first simulated day, so day-one accrual and commissions count towards
// performance. Degenerate inputs produce zero metrics, never NaN.
func Compute(initialCapital float64, values, benchmarkRates, realizedPnLs []float64) Report {
	report := Report{
		TradingDays:  len(values),
		InitialValue: initialCapital,
	}
	if len(values) > 0 {
		report.FinalValue = values[len(values)-1]
		report.TotalReturnPct = TotalReturnPct(initialCapital, report.FinalValue)
		report.AnnualizedReturnPct = AnnualizedReturnPct(initialCapital, report.FinalValue, len(values))
	}

	report.SharpeRatio = SharpeRatio(values, benchmarkRates)
	report.MaxDrawdownPct = MaxDrawdownPct(values)
	report.VolatilityPct = VolatilityPct(values)
	report.CDIReturnPct = CDITotalReturnPct(benchmarkRates)
	report.OutperformancePct = report.TotalReturnPct - report.CDIReturnPct

	report.TotalTrades = len(realizedPnLs)
	report.WinRatePct, report.AvgWin, report.AvgLoss, report.ProfitFactor = tradeStats(realizedPnLs)

	return report
}

// TotalReturnPct is the simple return of the final portfolio value over
// the starting capital, percent.
func TotalReturnPct(initialCapital, finalValue float64) float64 {
	if initialCapital <= 0 {
		return 0
	}
	return (finalValue/initialCapital - 1) * 100
}

// AnnualizedReturnPct compounds the total return geometrically over a
// 252 trading-day year.
func AnnualizedReturnPct(initialCapital, finalValue float64, tradingDays int) float64 {
	if initialCapital <= 0 || finalValue <= 0 || tradingDays < 2 {
		return 0
	}
	years := float64(tradingDays) / TradingDaysPerYear
	growth := finalValue / initialCapital
	return (math.Pow(growth, 1/years) - 1) * 100
}

// SharpeRatio is the annualized ratio of mean daily excess return over
// its standard deviation. Zero when the series is too short or has no
// variance.
func SharpeRatio(values []float64, benchmarkRates []float64) float64 {
	returns := dailyReturns(values)
	if len(returns) == 0 {
		return 0
	}

	excess := make([]float64, len(returns))
	for i, r := range returns {
		rf := 0.0
		// benchmarkRates aligns with values; returns[i] spans day i to i+1.
		if i+1 < len(benchmarkRates) {
			rf = benchmarkRates[i+1]
		}
		excess[i] = r - rf
	}

	mean := meanOf(excess)
	std := stddevOf(excess, mean)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdownPct is the largest peak-to-trough decline, reported as a
// positive percent.
func MaxDrawdownPct(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD * 100
}

// VolatilityPct is the annualized standard deviation of daily returns,
// percent.
func VolatilityPct(values []float64) float64 {
	returns := dailyReturns(values)
	if len(returns) < 2 {
		return 0
	}
	mean := meanOf(returns)
	return stddevOf(returns, mean) * math.Sqrt(TradingDaysPerYear) * 100
}

// CDITotalReturnPct compounds the daily benchmark rates over the run.
func CDITotalReturnPct(rates []float64) float64 {
	if len(rates) == 0 {
		return 0
	}
	growth := 1.0
	for _, r := range rates {
		growth *= 1 + r
	}
	return (growth - 1) * 100
}

// tradeStats summarizes realized trade outcomes.
func tradeStats(pnls []float64) (winRate, avgWin, avgLoss, profitFactor float64) {
	if len(pnls) == 0 {
		return 0, 0, 0, 0
	}

	var wins, losses int
	var grossWin, grossLoss float64
	for _, pnl := range pnls {
		if pnl > 0 {
			wins++
			grossWin += pnl
		} else if pnl < 0 {
			losses++
			grossLoss += -pnl
		}
	}

	winRate = float64(wins) / float64(len(pnls)) * 100
	if wins > 0 {
		avgWin = grossWin / float64(wins)
	}
	if losses > 0 {
		avgLoss = grossLoss / float64(losses)
	}
	if grossLoss > 0 {
		profitFactor = grossWin / grossLoss
	}
	return winRate, avgWin, avgLoss, profitFactor
}

// dailyReturns converts a value series to fractional day-over-day
// returns, skipping non-positive bases.
func dailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] <= 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}
	return returns
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddevOf is the sample standard deviation, zero for fewer than two points.
func stddevOf(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

package marketdata

import (
	"context"
	"fmt"
	"math"
	"time"
)

// MinUniverseSize is the smallest ticker universe a simulation accepts.
const MinUniverseSize = 10

// Provider supplies cleaned market data to the simulation. Provider
// failures before the run starts are fatal configuration errors.
type Provider interface {
	// GetPrices returns the aligned, cleaned daily price table.
	GetPrices(ctx context.Context, tickers []string, start, end time.Time) (*PriceTable, error)

	// GetBenchmarkRate returns the daily benchmark rate series.
	GetBenchmarkRate(ctx context.Context, start, end time.Time) (*BenchmarkSeries, error)
}

// UniverseReport records the outcome of universe validation.
type UniverseReport struct {
	Valid    []string
	Excluded map[string]string // ticker -> reason
}

// ValidateUniverse filters raw per-ticker series down to those with
// enough history and acceptable data quality: at least minDataPoints
// rows, at most 10% missing values and at least 95% of the present
// values positive.
func ValidateUniverse(series map[string][]PricePoint, tickers []string, minDataPoints int) UniverseReport {
	report := UniverseReport{
		Excluded: make(map[string]string),
	}

	for _, ticker := range tickers {
		points, ok := series[ticker]
		if !ok || len(points) == 0 {
			report.Excluded[ticker] = "no data"
			continue
		}

		if len(points) < minDataPoints {
			report.Excluded[ticker] = fmt.Sprintf("insufficient history (%d days)", len(points))
			continue
		}

		missing := 0
		positive := 0
		for _, p := range points {
			switch {
			case math.IsNaN(p.Close):
				missing++
			case p.Close > 0:
				positive++
			}
		}

		if missingPct := float64(missing) / float64(len(points)); missingPct > 0.10 {
			report.Excluded[ticker] = fmt.Sprintf("too many gaps (%.1f%%)", missingPct*100)
			continue
		}
		// Positive-price ratio is measured over the present values.
		present := len(points) - missing
		if present == 0 || float64(positive) < float64(present)*0.95 {
			report.Excluded[ticker] = "invalid prices"
			continue
		}

		report.Valid = append(report.Valid, ticker)
	}

	return report
}

// CheckUniverse returns a configuration error when the validated
// universe is too small to simulate.
func CheckUniverse(report UniverseReport) error {
	if len(report.Valid) < MinUniverseSize {
		return fmt.Errorf("universe too small: %d valid tickers, need at least %d",
			len(report.Valid), MinUniverseSize)
	}
	return nil
}

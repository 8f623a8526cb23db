package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/lfcamara/b3fund/pkg/logger"
)

// Fetcher pulls raw price history from the external quote API.
type Fetcher interface {
	GetDailyPrices(ctx context.Context, ticker string, start, end time.Time) ([]PricePoint, error)
}

// Service implements Provider on top of the Postgres repository with the
// external API as fallback. Fetched series are written back so repeated
// runs over the same window stay offline.
type Service struct {
	repo    *Repository
	fetcher Fetcher
	logger  *logger.Logger

	// MinDataPoints is the history floor a ticker must clear during
	// universe validation.
	MinDataPoints int
}

// NewService creates a market data service. fetcher may be nil, in which
// case only stored data is served.
func NewService(repo *Repository, fetcher Fetcher, log *logger.Logger) *Service {
	return &Service{
		repo:          repo,
		fetcher:       fetcher,
		logger:        log.WithField("module", "marketdata"),
		MinDataPoints: 60,
	}
}

// GetPrices implements Provider. Tickers failing universe validation are
// dropped with a log line; a universe below the floor is an error.
func (s *Service) GetPrices(ctx context.Context, tickers []string, start, end time.Time) (*PriceTable, error) {
	series := make(map[string][]PricePoint, len(tickers))
	for _, ticker := range tickers {
		points, err := s.loadSeries(ctx, ticker, start, end)
		if err != nil {
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Failed to load price series")
			continue
		}
		series[ticker] = points
	}

	report := ValidateUniverse(series, tickers, s.MinDataPoints)
	for ticker, reason := range report.Excluded {
		s.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"reason": reason,
		}).Warn("Ticker excluded from universe")
	}
	if err := CheckUniverse(report); err != nil {
		return nil, err
	}

	valid := make(map[string][]PricePoint, len(report.Valid))
	for _, ticker := range report.Valid {
		valid[ticker] = series[ticker]
	}

	table := BuildTable(valid)
	table.Clean()
	if table.IsEmpty() {
		return nil, fmt.Errorf("no usable price data between %s and %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	s.logger.WithFields(map[string]interface{}{
		"tickers": len(table.Tickers()),
		"days":    table.Len(),
	}).Info("Price table ready")

	return table, nil
}

// GetBenchmarkRate implements Provider.
func (s *Service) GetBenchmarkRate(ctx context.Context, start, end time.Time) (*BenchmarkSeries, error) {
	series, err := s.repo.GetBenchmarkRates(ctx, day(start), day(end))
	if err != nil {
		return nil, fmt.Errorf("load benchmark rates: %w", err)
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("no benchmark rates between %s and %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return series, nil
}

// CheckTickers runs universe validation over the tickers without
// building a price table.
func (s *Service) CheckTickers(ctx context.Context, tickers []string, start, end time.Time) (UniverseReport, error) {
	series := make(map[string][]PricePoint, len(tickers))
	for _, ticker := range tickers {
		select {
		case <-ctx.Done():
			return UniverseReport{}, ctx.Err()
		default:
		}

		points, err := s.loadSeries(ctx, ticker, start, end)
		if err != nil {
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Failed to load price series")
			continue
		}
		series[ticker] = points
	}
	return ValidateUniverse(series, tickers, s.MinDataPoints), nil
}

// loadSeries serves one ticker from the repository, fetching and caching
// on a miss.
func (s *Service) loadSeries(ctx context.Context, ticker string, start, end time.Time) ([]PricePoint, error) {
	points, err := s.repo.GetPricesByRange(ctx, ticker, day(start), day(end))
	if err != nil {
		return nil, err
	}
	if len(points) > 0 || s.fetcher == nil {
		return points, nil
	}

	fetched, err := s.fetcher.GetDailyPrices(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SavePriceBatch(ctx, ticker, fetched); err != nil {
		s.logger.WithError(err).WithField("ticker", ticker).Warn("Failed to cache price series")
	}
	return fetched, nil
}

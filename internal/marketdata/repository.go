package marketdata

import (
	"context"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lfcamara/b3fund/internal/signal"
)

// Repository is the Postgres store for daily prices and benchmark rates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new market data repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetPricesByRange retrieves a ticker's closing prices within a date
// range, ascending by date.
func (r *Repository) GetPricesByRange(ctx context.Context, ticker string, from, to time.Time) ([]PricePoint, error) {
	query := `
		SELECT trade_date, close_price
		FROM daily_prices
		WHERE ticker = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetLatestPrice retrieves the most recent closing price for a ticker.
func (r *Repository) GetLatestPrice(ctx context.Context, ticker string) (*PricePoint, error) {
	query := `
		SELECT trade_date, close_price
		FROM daily_prices
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var p PricePoint
	err := r.pool.QueryRow(ctx, query, ticker).Scan(&p.Date, &p.Close)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePrice upserts a single daily price.
func (r *Repository) SavePrice(ctx context.Context, ticker string, point PricePoint) error {
	query := `
		INSERT INTO daily_prices (ticker, trade_date, close_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			close_price = EXCLUDED.close_price
	`

	_, err := r.pool.Exec(ctx, query, ticker, day(point.Date), point.Close)
	return err
}

// SavePriceBatch upserts multiple daily prices for one ticker. Missing
// and non-positive closes are not persisted.
func (r *Repository) SavePriceBatch(ctx context.Context, ticker string, points []PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	for _, point := range points {
		if math.IsNaN(point.Close) || point.Close <= 0 {
			continue
		}
		if err := r.SavePrice(ctx, ticker, point); err != nil {
			return err
		}
	}
	return nil
}

// GetBenchmarkRates retrieves daily benchmark rates within a date range,
// ascending by date.
func (r *Repository) GetBenchmarkRates(ctx context.Context, from, to time.Time) (*BenchmarkSeries, error) {
	query := `
		SELECT rate_date, daily_rate
		FROM benchmark_rates
		WHERE rate_date BETWEEN $1 AND $2
		ORDER BY rate_date ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	var rates []float64
	for rows.Next() {
		var date time.Time
		var rate float64
		if err := rows.Scan(&date, &rate); err != nil {
			return nil, err
		}
		dates = append(dates, date)
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return NewBenchmarkSeries(dates, rates), nil
}

// SaveBenchmarkRate upserts a single daily benchmark rate.
func (r *Repository) SaveBenchmarkRate(ctx context.Context, date time.Time, rate float64) error {
	query := `
		INSERT INTO benchmark_rates (rate_date, daily_rate)
		VALUES ($1, $2)
		ON CONFLICT (rate_date) DO UPDATE SET
			daily_rate = EXCLUDED.daily_rate
	`

	_, err := r.pool.Exec(ctx, query, day(date), rate)
	return err
}

// SaveFundamentals upserts a fundamentals snapshot for a ticker.
func (r *Repository) SaveFundamentals(ctx context.Context, ticker string, date time.Time, f *signal.Fundamentals) error {
	query := `
		INSERT INTO fundamentals (
			ticker, snapshot_date, price, pe, pb, ps, dividend_yield,
			net_margin, roe, debt_to_equity, return_1m, return_3m
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (ticker, snapshot_date) DO UPDATE SET
			price = EXCLUDED.price,
			pe = EXCLUDED.pe,
			pb = EXCLUDED.pb,
			ps = EXCLUDED.ps,
			dividend_yield = EXCLUDED.dividend_yield,
			net_margin = EXCLUDED.net_margin,
			roe = EXCLUDED.roe,
			debt_to_equity = EXCLUDED.debt_to_equity,
			return_1m = EXCLUDED.return_1m,
			return_3m = EXCLUDED.return_3m
	`

	_, err := r.pool.Exec(ctx, query,
		ticker, day(date),
		f.Price, f.PE, f.PB, f.PS, f.DividendYield,
		f.NetMargin, f.ROE, f.DebtToEquity, f.Return1M, f.Return3M,
	)
	return err
}

// GetFundamentals retrieves the most recent fundamentals snapshot for a
// ticker on or before the given date.
func (r *Repository) GetFundamentals(ctx context.Context, ticker string, date time.Time) (*signal.Fundamentals, error) {
	query := `
		SELECT price, pe, pb, ps, dividend_yield,
			net_margin, roe, debt_to_equity, return_1m, return_3m
		FROM fundamentals
		WHERE ticker = $1 AND snapshot_date <= $2
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	var f signal.Fundamentals
	err := r.pool.QueryRow(ctx, query, ticker, day(date)).Scan(
		&f.Price, &f.PE, &f.PB, &f.PS, &f.DividendYield,
		&f.NetMargin, &f.ROE, &f.DebtToEquity, &f.Return1M, &f.Return3M,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

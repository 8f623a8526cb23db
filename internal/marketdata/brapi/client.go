package brapi

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/lfcamara/b3fund/internal/marketdata"
	"github.com/lfcamara/b3fund/pkg/config"
	"github.com/lfcamara/b3fund/pkg/httputil"
	"github.com/lfcamara/b3fund/pkg/logger"
)

// Client fetches daily quotes from the brapi.dev chart API.
type Client struct {
	http    *httputil.Client
	baseURL string
	token   string
	logger  *logger.Logger
}

// New creates a brapi client using the shared HTTP wrapper.
func New(cfg config.ProviderConfig, log *logger.Logger) *Client {
	return &Client{
		http:    httputil.New(log, cfg.Timeout).WithRateLimit(cfg.RateLimit),
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		logger:  log.WithField("module", "brapi"),
	}
}

// quoteResponse mirrors the /api/quote/{ticker} payload. Only the
// fields the simulation consumes are mapped.
type quoteResponse struct {
	Results []struct {
		Symbol              string  `json:"symbol"`
		RegularMarketPrice  float64 `json:"regularMarketPrice"`
		HistoricalDataPrice []struct {
			Date  int64   `json:"date"` // unix seconds
			Close float64 `json:"close"`
		} `json:"historicalDataPrice"`
	} `json:"results"`
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// GetDailyPrices fetches the closing price history for one ticker.
// Rows with a missing or non-positive close come back as NaN so the
// table cleaning step can forward-fill them.
func (c *Client) GetDailyPrices(ctx context.Context, ticker string, start, end time.Time) ([]marketdata.PricePoint, error) {
	u := fmt.Sprintf("%s/quote/%s?range=%s&interval=1d&token=%s",
		c.baseURL, url.PathEscape(ticker), rangeParam(start, end), url.QueryEscape(c.token))

	var resp quoteResponse
	if err := c.http.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("brapi quote %s: %w", ticker, err)
	}
	if resp.Error {
		return nil, fmt.Errorf("brapi quote %s: %s", ticker, resp.Message)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("brapi quote %s: empty result", ticker)
	}

	var points []marketdata.PricePoint
	for _, row := range resp.Results[0].HistoricalDataPrice {
		date := time.Unix(row.Date, 0).UTC()
		if date.Before(start) || date.After(end) {
			continue
		}
		closePrice := row.Close
		if closePrice <= 0 {
			closePrice = math.NaN()
		}
		points = append(points, marketdata.PricePoint{Date: date, Close: closePrice})
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"points": len(points),
	}).Debug("Fetched price history")

	return points, nil
}

// rangeParam picks the smallest API range window covering [start, end].
func rangeParam(start, end time.Time) string {
	days := end.Sub(start).Hours() / 24
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	case days <= 1825:
		return "5y"
	default:
		return "max"
	}
}

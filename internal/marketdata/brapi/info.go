package brapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TickerInfo is the descriptive metadata scraped for a listed company.
type TickerInfo struct {
	Ticker string
	Name   string
	Sector string
}

// GetTickerInfo scrapes the company name and sector from the public
// quote page. The chart API does not expose sector data, so this is the
// only HTML-backed call in the provider.
func (c *Client) GetTickerInfo(ctx context.Context, ticker string) (*TickerInfo, error) {
	u := fmt.Sprintf("https://www.fundamentus.com.br/detalhes.php?papel=%s", ticker)

	resp, err := c.http.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch ticker page %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse ticker page %s: %w", ticker, err)
	}

	info := &TickerInfo{Ticker: ticker}

	// The details page lays out label/value cell pairs.
	doc.Find("td.label").Each(func(i int, label *goquery.Selection) {
		value := strings.TrimSpace(label.Next().Text())
		switch strings.TrimSpace(label.Text()) {
		case "Empresa":
			info.Name = value
		case "Setor":
			info.Sector = value
		}
	})

	if info.Name == "" {
		return nil, fmt.Errorf("ticker page %s: company name not found", ticker)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"sector": info.Sector,
	}).Debug("Scraped ticker info")

	return info, nil
}

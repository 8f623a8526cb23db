package marketdata

import (
	"math"
	"sort"
	"time"
)

// PricePoint is one daily closing price for a ticker.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceTable is an ordered, date-indexed table of closing prices, one
// column per ticker. After Clean() the table is contiguous over trading
// days: gaps are forward-filled and rows before full coverage dropped.
type PriceTable struct {
	dates   []time.Time
	tickers []string
	// prices[ticker][i] aligns with dates[i]; NaN marks a missing value.
	prices map[string][]float64
}

// BuildTable aligns per-ticker series onto the union of their dates.
func BuildTable(series map[string][]PricePoint) *PriceTable {
	dateSet := make(map[time.Time]bool)
	for _, points := range series {
		for _, p := range points {
			dateSet[day(p.Date)] = true
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	tickers := make([]string, 0, len(series))
	prices := make(map[string][]float64, len(series))
	for ticker, points := range series {
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = math.NaN()
		}
		for _, p := range points {
			if p.Close > 0 {
				col[index[day(p.Date)]] = p.Close
			}
		}
		tickers = append(tickers, ticker)
		prices[ticker] = col
	}
	sort.Strings(tickers)

	return &PriceTable{dates: dates, tickers: tickers, prices: prices}
}

// Clean applies the provider contract: drop rows where every ticker is
// missing, forward-fill remaining gaps, then drop leading rows where any
// ticker still has no price.
func (t *PriceTable) Clean() {
	if t.Len() == 0 {
		return
	}

	// Drop all-NaN rows.
	keep := make([]int, 0, len(t.dates))
	for i := range t.dates {
		for _, ticker := range t.tickers {
			if !math.IsNaN(t.prices[ticker][i]) {
				keep = append(keep, i)
				break
			}
		}
	}
	t.selectRows(keep)

	// Forward-fill gaps per column.
	for _, ticker := range t.tickers {
		col := t.prices[ticker]
		last := math.NaN()
		for i := range col {
			if math.IsNaN(col[i]) {
				col[i] = last
			} else {
				last = col[i]
			}
		}
	}

	// Drop leading rows with any remaining NaN.
	start := 0
	for ; start < len(t.dates); start++ {
		complete := true
		for _, ticker := range t.tickers {
			if math.IsNaN(t.prices[ticker][start]) {
				complete = false
				break
			}
		}
		if complete {
			break
		}
	}
	if start > 0 {
		rows := make([]int, 0, len(t.dates)-start)
		for i := start; i < len(t.dates); i++ {
			rows = append(rows, i)
		}
		t.selectRows(rows)
	}
}

func (t *PriceTable) selectRows(rows []int) {
	newDates := make([]time.Time, len(rows))
	for i, row := range rows {
		newDates[i] = t.dates[row]
	}
	for _, ticker := range t.tickers {
		col := t.prices[ticker]
		newCol := make([]float64, len(rows))
		for i, row := range rows {
			newCol[i] = col[row]
		}
		t.prices[ticker] = newCol
	}
	t.dates = newDates
}

// Len returns the number of trading days in the table.
func (t *PriceTable) Len() int {
	return len(t.dates)
}

// IsEmpty reports whether the table has no rows or no columns.
func (t *PriceTable) IsEmpty() bool {
	return len(t.dates) == 0 || len(t.tickers) == 0
}

// Dates returns the ordered trading-day index.
func (t *PriceTable) Dates() []time.Time {
	return t.dates
}

// Tickers returns the column names in ascending order.
func (t *PriceTable) Tickers() []string {
	return t.tickers
}

// Row returns the ticker→price map for the i-th trading day. Tickers
// without a value on that day are absent.
func (t *PriceTable) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(t.tickers))
	for _, ticker := range t.tickers {
		if v := t.prices[ticker][i]; !math.IsNaN(v) && v > 0 {
			row[ticker] = v
		}
	}
	return row
}

// Series returns the aligned price series for a ticker.
func (t *PriceTable) Series(ticker string) ([]float64, bool) {
	col, ok := t.prices[ticker]
	return col, ok
}

// BenchmarkSeries is an ordered series of daily benchmark rates.
type BenchmarkSeries struct {
	dates []time.Time
	rates []float64
}

// NewBenchmarkSeries builds a series from parallel date/rate slices,
// sorted by date.
func NewBenchmarkSeries(dates []time.Time, rates []float64) *BenchmarkSeries {
	type pair struct {
		d time.Time
		r float64
	}
	pairs := make([]pair, len(dates))
	for i := range dates {
		pairs[i] = pair{day(dates[i]), rates[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].d.Before(pairs[j].d) })

	out := &BenchmarkSeries{
		dates: make([]time.Time, len(pairs)),
		rates: make([]float64, len(pairs)),
	}
	for i, p := range pairs {
		out.dates[i] = p.d
		out.rates[i] = p.r
	}
	return out
}

// Len returns the number of points in the series.
func (b *BenchmarkSeries) Len() int {
	return len(b.dates)
}

// Rate returns the rate on the given date, if present.
func (b *BenchmarkSeries) Rate(date time.Time) (float64, bool) {
	d := day(date)
	i := sort.Search(len(b.dates), func(i int) bool { return !b.dates[i].Before(d) })
	if i < len(b.dates) && b.dates[i].Equal(d) {
		return b.rates[i], true
	}
	return 0, false
}

// AlignTo projects the series onto an ascending date index. Benchmark
// points outside the index are dropped; missing days are forward-filled
// from the prior available rate, or 0 when no prior rate exists.
func (b *BenchmarkSeries) AlignTo(dates []time.Time) []float64 {
	aligned := make([]float64, len(dates))
	j := 0
	last := 0.0
	for i, date := range dates {
		d := day(date)
		for j < len(b.dates) && !b.dates[j].After(d) {
			last = b.rates[j]
			j++
		}
		aligned[i] = last
	}
	return aligned
}

// day truncates a timestamp to day granularity in UTC.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

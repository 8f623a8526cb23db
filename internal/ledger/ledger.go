package ledger

import (
	"math"
	"sort"
	"time"

	"github.com/lfcamara/b3fund/pkg/logger"
)

// Ledger owns the cash balance, open positions, trade log and daily
// snapshots of a simulated portfolio. All mutations happen through its
// methods; operations that cannot be satisfied return nil instead of
// erroring, and never leave cash or positions in a partial state.
//
// The Ledger is not safe for concurrent use. The simulation driver is
// its single owner.
type Ledger struct {
	config Config

	cash      float64
	positions map[string]*Position
	trades    []Trade
	snapshots []Snapshot

	nextTradeID int64
	logger      *logger.Logger
}

// New creates a ledger holding the initial capital in cash.
func New(config Config, log *logger.Logger) *Ledger {
	return &Ledger{
		config:      config,
		cash:        config.InitialCapital,
		positions:   make(map[string]*Position),
		trades:      make([]Trade, 0),
		snapshots:   make([]Snapshot, 0),
		nextTradeID: 1,
		logger:      log.WithField("module", "ledger"),
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// PositionsValue returns the mark-to-market value of all open positions.
func (l *Ledger) PositionsValue() float64 {
	total := 0.0
	for _, pos := range l.positions {
		total += pos.Value()
	}
	return total
}

// TotalValue returns cash plus positions value.
func (l *Ledger) TotalValue() float64 {
	return l.cash + l.PositionsValue()
}

// ExposurePct returns the percentage of total value held in positions.
func (l *Ledger) ExposurePct() float64 {
	total := l.TotalValue()
	if total <= 0 {
		return 0
	}
	return 100 * l.PositionsValue() / total
}

// NumPositions returns the number of open positions.
func (l *Ledger) NumPositions() int {
	return len(l.positions)
}

// Holds reports whether a position is open for the ticker.
func (l *Ledger) Holds(ticker string) bool {
	_, ok := l.positions[ticker]
	return ok
}

// HeldTickers returns the open position tickers in ascending order.
func (l *Ledger) HeldTickers() []string {
	tickers := make([]string, 0, len(l.positions))
	for ticker := range l.positions {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// Position returns a copy of the open position for the ticker.
func (l *Ledger) Position(ticker string) (Position, bool) {
	pos, ok := l.positions[ticker]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions in ticker order.
func (l *Ledger) Positions() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, ticker := range l.HeldTickers() {
		out = append(out, *l.positions[ticker])
	}
	return out
}

// Trades returns the append-only trade log.
func (l *Ledger) Trades() []Trade {
	return l.trades
}

// Snapshots returns the daily snapshot history in date order.
func (l *Ledger) Snapshots() []Snapshot {
	return l.snapshots
}

// Config returns the immutable portfolio configuration.
func (l *Ledger) Config() Config {
	return l.config
}

// UpdatePrices sets the current price of every held position present in
// the map. Tickers without a position are ignored; a held ticker missing
// from the map keeps its last known price.
func (l *Ledger) UpdatePrices(priceByTicker map[string]float64) {
	for ticker, pos := range l.positions {
		if price, ok := priceByTicker[ticker]; ok && price > 0 {
			pos.CurrentPrice = price
		}
	}
}

// AccrueCash applies one day of the risk-free rate to idle cash.
// The driver calls this exactly once per simulated day, before any trade.
func (l *Ledger) AccrueCash(date time.Time, dailyRate float64) {
	l.cash *= 1 + dailyRate
}

// CheckStops scans held positions in ticker order and sells any whose
// current price breached its stop-loss or take-profit level. At most one
// sell per ticker per call. Returns the trades issued.
func (l *Ledger) CheckStops(date time.Time) []Trade {
	var triggered []Trade

	for _, ticker := range l.HeldTickers() {
		pos := l.positions[ticker]

		var reason Reason
		switch {
		case pos.StopLoss > 0 && pos.CurrentPrice <= pos.StopLoss:
			reason = ReasonStopLoss
		case pos.TakeProfit > 0 && pos.CurrentPrice >= pos.TakeProfit:
			reason = ReasonTakeProfit
		default:
			continue
		}

		if trade := l.Sell(ticker, pos.CurrentPrice, date, reason); trade != nil {
			triggered = append(triggered, *trade)
		}
	}

	return triggered
}

// Buy opens a position sized at targetPct of total value, clamped into
// the configured bounds. Returns nil with no state change when the
// ticker is already held, the price is not positive, the target affords
// fewer than one share, or cash cannot cover principal plus commission.
func (l *Ledger) Buy(ticker string, price, targetPct float64, date time.Time, stopLoss, takeProfit float64, reason Reason) *Trade {
	if price <= 0 {
		return nil
	}
	if _, held := l.positions[ticker]; held {
		return nil
	}

	if targetPct < l.config.MinPositionPct {
		targetPct = l.config.MinPositionPct
	}
	if targetPct > l.config.MaxPositionPct {
		targetPct = l.config.MaxPositionPct
	}

	targetValue := targetPct / 100 * l.TotalValue()
	shares := int64(math.Floor(targetValue / price))
	if shares < 1 {
		return nil
	}

	principal := float64(shares) * price
	commission := principal * l.config.CommissionPct
	if l.cash < principal+commission {
		return nil
	}

	l.cash -= principal + commission
	l.positions[ticker] = &Position{
		Ticker:       ticker,
		Shares:       shares,
		EntryPrice:   price,
		EntryDate:    date,
		StopLoss:     stopLoss,
		TakeProfit:   takeProfit,
		CurrentPrice: price,
	}

	trade := l.appendTrade(Trade{
		Ticker:     ticker,
		Action:     ActionBuy,
		Shares:     shares,
		Price:      price,
		Date:       date,
		Commission: commission,
		Reason:     reason,
	})

	l.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"shares": shares,
		"price":  price,
		"reason": reason,
	}).Debug("Position opened")

	return trade
}

// Sell closes the full position at the given price. Returns nil with no
// state change when the ticker is not held or the price is not positive.
func (l *Ledger) Sell(ticker string, price float64, date time.Time, reason Reason) *Trade {
	pos, held := l.positions[ticker]
	if !held || price <= 0 {
		return nil
	}

	gross := float64(pos.Shares) * price
	commission := gross * l.config.CommissionPct
	pnl := gross - commission - pos.EntryPrice*float64(pos.Shares)

	l.cash += gross - commission
	delete(l.positions, ticker)

	trade := l.appendTrade(Trade{
		Ticker:      ticker,
		Action:      ActionSell,
		Shares:      pos.Shares,
		Price:       price,
		Date:        date,
		Commission:  commission,
		Reason:      reason,
		RealizedPnL: pnl,
	})

	l.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"shares": pos.Shares,
		"price":  price,
		"pnl":    pnl,
		"reason": reason,
	}).Debug("Position closed")

	return trade
}

// RecordState appends the end-of-day snapshot. The daily return is
// measured against the previous snapshot's total value, 0 on the first
// recorded day.
func (l *Ledger) RecordState(date time.Time) Snapshot {
	total := l.TotalValue()

	dailyReturn := 0.0
	if n := len(l.snapshots); n > 0 && l.snapshots[n-1].TotalValue > 0 {
		dailyReturn = (total/l.snapshots[n-1].TotalValue - 1) * 100
	}

	snap := Snapshot{
		Date:           date,
		Cash:           l.cash,
		PositionsValue: l.PositionsValue(),
		TotalValue:     total,
		ExposurePct:    l.ExposurePct(),
		DailyReturnPct: dailyReturn,
	}
	l.snapshots = append(l.snapshots, snap)

	return snap
}

func (l *Ledger) appendTrade(trade Trade) *Trade {
	trade.ID = l.nextTradeID
	l.nextTradeID++
	l.trades = append(l.trades, trade)
	return &l.trades[len(l.trades)-1]
}

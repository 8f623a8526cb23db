package ledger

import "time"

// Action is the side of a trade.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Reason explains why a trade was issued.
type Reason string

const (
	ReasonRebalance    Reason = "REBALANCE"
	ReasonHoldExposure Reason = "HOLD_EXPOSURE"
	ReasonNoSignal     Reason = "NO_SIGNAL"
	ReasonStopLoss     Reason = "STOP_LOSS"
	ReasonTakeProfit   Reason = "TAKE_PROFIT"
)

// Config defines the immutable parameters of a portfolio.
// Position size bounds are in percent of total value (2.0 = 2%).
type Config struct {
	InitialCapital float64
	CommissionPct  float64
	MinPositionPct float64
	MaxPositionPct float64
}

// Position is an open holding. At most one per ticker, owned by the Ledger.
type Position struct {
	Ticker       string    `json:"ticker"`
	Shares       int64     `json:"shares"`
	EntryPrice   float64   `json:"entry_price"`
	EntryDate    time.Time `json:"entry_date"`
	StopLoss     float64   `json:"stop_loss"`
	TakeProfit   float64   `json:"take_profit"`
	CurrentPrice float64   `json:"current_price"`
}

// Value returns the mark-to-market value of the position.
func (p *Position) Value() float64 {
	return float64(p.Shares) * p.CurrentPrice
}

// UnrealizedPnL returns the open profit or loss before commission.
func (p *Position) UnrealizedPnL() float64 {
	return float64(p.Shares) * (p.CurrentPrice - p.EntryPrice)
}

// Trade is one executed order. Immutable once appended to the trade log.
type Trade struct {
	ID          int64     `json:"id"`
	Ticker      string    `json:"ticker"`
	Action      Action    `json:"action"`
	Shares      int64     `json:"shares"`
	Price       float64   `json:"price"`
	Date        time.Time `json:"date"`
	Commission  float64   `json:"commission"`
	Reason      Reason    `json:"reason"`
	RealizedPnL float64   `json:"realized_pnl"` // set only on SELL
}

// Snapshot is the end-of-day state of the portfolio.
type Snapshot struct {
	Date           time.Time `json:"date"`
	Cash           float64   `json:"cash"`
	PositionsValue float64   `json:"positions_value"`
	TotalValue     float64   `json:"total_value"`
	ExposurePct    float64   `json:"exposure_pct"`
	DailyReturnPct float64   `json:"daily_return_pct"`
}

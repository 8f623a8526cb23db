package strategy

import (
	"sort"
	"time"

	"github.com/lfcamara/b3fund/internal/ledger"
	"github.com/lfcamara/b3fund/internal/signal"
	"github.com/lfcamara/b3fund/pkg/logger"
)

// Rebalancer drives the ledger towards the tiered target allocation on
// rebalance dates. Positions already inside the keep set are never
// resized; only keep-set membership transitions trigger trades.
type Rebalancer struct {
	config Config
	logger *logger.Logger
}

// NewRebalancer creates a rebalancer.
func NewRebalancer(config Config, log *logger.Logger) *Rebalancer {
	return &Rebalancer{
		config: config,
		logger: log.WithField("module", "rebalancer"),
	}
}

// Outcome summarizes one rebalance pass.
type Outcome struct {
	Date        time.Time
	BuySignals  int
	HoldSignals int
	Allocation  AllocationStep
	Sold        []ledger.Trade
	Bought      []ledger.Trade
}

// Rebalance classifies the day's signals, ranks the tiers, liquidates
// everything outside the keep set and buys into the BUY then HOLD pools.
// Stop-triggered exits from earlier in the day are already reflected in
// the ledger, so stopped-out tickers count as not held here.
func (r *Rebalancer) Rebalance(book *ledger.Ledger, signals []signal.Signal, prices map[string]float64, date time.Time) Outcome {
	buySignals, holdSignals := partition(signals)
	rankTier(buySignals)
	rankTier(holdSignals)

	alloc := r.config.allocationFor(len(buySignals))

	outcome := Outcome{
		Date:        date,
		BuySignals:  len(buySignals),
		HoldSignals: len(holdSignals),
		Allocation:  alloc,
	}

	buyPool := top(buySignals, r.config.Tiers.BuyPoolSize)
	holdPool := top(holdSignals, r.config.Tiers.HoldPoolSize)

	keep := make(map[string]bool, len(buyPool)+len(holdPool))
	for _, sig := range buyPool {
		keep[sig.Ticker] = true
	}
	for _, sig := range holdPool {
		keep[sig.Ticker] = true
	}

	// Liquidate held tickers that fell out of the keep set.
	for _, ticker := range book.HeldTickers() {
		if keep[ticker] {
			continue
		}
		price, ok := prices[ticker]
		if !ok {
			continue
		}
		if trade := book.Sell(ticker, price, date, ledger.ReasonNoSignal); trade != nil {
			outcome.Sold = append(outcome.Sold, *trade)
		}
	}

	// Buy the BUY tier, then fill HOLD exposure, skipping held tickers.
	buyPct := perPositionPct(alloc.BuyPct, len(buySignals), r.config.Tiers.BuyPoolSize)
	outcome.Bought = append(outcome.Bought,
		r.buyTier(book, buyPool, prices, buyPct, date, ledger.ReasonRebalance)...)

	holdPct := perPositionPct(alloc.HoldPct, len(holdSignals), r.config.Tiers.HoldPoolSize)
	outcome.Bought = append(outcome.Bought,
		r.buyTier(book, holdPool, prices, holdPct, date, ledger.ReasonHoldExposure)...)

	r.logger.WithFields(map[string]interface{}{
		"date":         date.Format("2006-01-02"),
		"buy_signals":  outcome.BuySignals,
		"hold_signals": outcome.HoldSignals,
		"buy_pct":      alloc.BuyPct,
		"hold_pct":     alloc.HoldPct,
		"sold":         len(outcome.Sold),
		"bought":       len(outcome.Bought),
		"exposure":     book.ExposurePct(),
	}).Info("Rebalance completed")

	return outcome
}

func (r *Rebalancer) buyTier(book *ledger.Ledger, pool []signal.Signal, prices map[string]float64, targetPct float64, date time.Time, reason ledger.Reason) []ledger.Trade {
	var bought []ledger.Trade

	for _, sig := range pool {
		price, ok := prices[sig.Ticker]
		if !ok {
			continue
		}
		if book.Holds(sig.Ticker) {
			continue
		}

		if trade := book.Buy(sig.Ticker, price, targetPct, date, sig.StopLoss, sig.TakeProfit, reason); trade != nil {
			bought = append(bought, *trade)
		}
	}

	return bought
}

// partition splits signals into the BUY and HOLD tiers, preserving
// encounter order. SELL and unknown verdicts fall through: those tickers
// become liquidation candidates if currently held.
func partition(signals []signal.Signal) (buys, holds []signal.Signal) {
	for _, sig := range signals {
		switch sig.Verdict {
		case signal.VerdictBuy:
			buys = append(buys, sig)
		case signal.VerdictHold:
			holds = append(holds, sig)
		}
	}
	return buys, holds
}

// rankTier orders a tier descending by score × confidence. The sort is
// stable: ties keep encounter order.
func rankTier(tier []signal.Signal) {
	sort.SliceStable(tier, func(i, j int) bool {
		return tier[i].Rank() > tier[j].Rank()
	})
}

func top(tier []signal.Signal, n int) []signal.Signal {
	if len(tier) < n {
		n = len(tier)
	}
	return tier[:n]
}

// perPositionPct splits a tier allocation evenly across the tier's
// effective pool: the signal count capped at the pool size, floored at 1.
func perPositionPct(tierPct float64, numSignals, poolSize int) float64 {
	denom := numSignals
	if denom < 1 {
		denom = 1
	}
	if denom > poolSize {
		denom = poolSize
	}
	return tierPct / float64(denom)
}

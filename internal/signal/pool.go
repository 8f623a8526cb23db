package signal

import (
	"context"
	"sync"
	"time"

	"github.com/lfcamara/b3fund/pkg/logger"
)

// Pool fans signal generation out to a bounded set of workers.
// Per-ticker calls are independent, so they may run concurrently, but
// every signal is collected before the caller touches the ledger.
type Pool struct {
	generator Generator
	workers   int
	logger    *logger.Logger
}

// NewPool creates a pool with the given worker count (minimum 1).
func NewPool(generator Generator, workers int, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		generator: generator,
		workers:   workers,
		logger:    log.WithField("module", "signal_pool"),
	}
}

type result struct {
	ticker string
	signal *Signal
	err    error
}

// Collect generates signals for every ticker and returns them in the
// tickers' encounter order, so downstream ranking stays deterministic
// regardless of worker scheduling. Tickers whose generation failed or
// returned no signal are absent from the result.
func (p *Pool) Collect(ctx context.Context, tickers []string, date time.Time) []Signal {
	tickerCh := make(chan string, len(tickers))
	resultCh := make(chan result, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, tickerCh, resultCh, date)
		}()
	}

	for _, ticker := range tickers {
		tickerCh <- ticker
	}
	close(tickerCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	collected := make(map[string]*Signal, len(tickers))
	failed := 0
	for res := range resultCh {
		if res.err != nil || res.signal == nil {
			failed++
			if res.err != nil {
				p.logger.WithError(res.err).WithField("ticker", res.ticker).Debug("Signal generation failed")
			}
			continue
		}
		collected[res.ticker] = res.signal
	}

	// Rebuild in input order.
	signals := make([]Signal, 0, len(collected))
	for _, ticker := range tickers {
		if sig, ok := collected[ticker]; ok {
			signals = append(signals, *sig)
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"date":      date.Format("2006-01-02"),
		"requested": len(tickers),
		"generated": len(signals),
		"failed":    failed,
	}).Debug("Signal collection completed")

	return signals
}

func (p *Pool) worker(ctx context.Context, tickerCh <-chan string, resultCh chan<- result, date time.Time) {
	for ticker := range tickerCh {
		select {
		case <-ctx.Done():
			resultCh <- result{ticker: ticker, err: ctx.Err()}
			continue
		default:
		}

		sig, err := p.generator.Generate(ctx, ticker, date)
		resultCh <- result{ticker: ticker, signal: sig, err: err}
	}
}

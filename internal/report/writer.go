// Package report persists simulation results as CSV and JSON artifacts.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lfcamara/b3fund/internal/backtest"
	"github.com/lfcamara/b3fund/internal/ledger"
	"github.com/lfcamara/b3fund/pkg/logger"
)

// Artifact file names inside a run directory.
const (
	FileHistory   = "portfolio_history.csv"
	FileTrades    = "trades.csv"
	FilePositions = "final_positions.csv"
	FileMetrics   = "metrics.json"
	FileResult    = "result.json"
)

// Writer saves backtest results under a base output directory, one
// timestamped subdirectory per run.
type Writer struct {
	baseDir string
	logger  *logger.Logger
}

// NewWriter creates a report writer.
func NewWriter(baseDir string, log *logger.Logger) *Writer {
	return &Writer{
		baseDir: baseDir,
		logger:  log.WithField("module", "report"),
	}
}

// Write persists all artifacts for one run and returns the run directory.
func (w *Writer) Write(result *backtest.Result) (string, error) {
	dir := filepath.Join(w.baseDir, result.StartedAt.Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	if err := w.writeHistory(filepath.Join(dir, FileHistory), result.Snapshots); err != nil {
		return "", err
	}
	if err := w.writeTrades(filepath.Join(dir, FileTrades), result.Trades); err != nil {
		return "", err
	}
	if err := w.writePositions(filepath.Join(dir, FilePositions), result.FinalPositions); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, FileMetrics), result.Metrics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, FileResult), result); err != nil {
		return "", err
	}

	w.logger.WithField("dir", dir).Info("Backtest report written")
	return dir, nil
}

func (w *Writer) writeHistory(path string, snapshots []ledger.Snapshot) error {
	rows := [][]string{
		{"date", "cash", "positions_value", "total_value", "exposure_pct", "daily_return_pct"},
	}
	for _, s := range snapshots {
		rows = append(rows, []string{
			s.Date.Format("2006-01-02"),
			money(s.Cash),
			money(s.PositionsValue),
			money(s.TotalValue),
			pct(s.ExposurePct),
			pct(s.DailyReturnPct),
		})
	}
	return writeCSV(path, rows)
}

func (w *Writer) writeTrades(path string, trades []ledger.Trade) error {
	rows := [][]string{
		{"id", "date", "ticker", "action", "shares", "price", "commission", "reason", "realized_pnl"},
	}
	for _, t := range trades {
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			t.Date.Format("2006-01-02"),
			t.Ticker,
			string(t.Action),
			strconv.FormatInt(t.Shares, 10),
			money(t.Price),
			money(t.Commission),
			string(t.Reason),
			money(t.RealizedPnL),
		})
	}
	return writeCSV(path, rows)
}

func (w *Writer) writePositions(path string, positions []ledger.Position) error {
	rows := [][]string{
		{"ticker", "shares", "entry_price", "entry_date", "current_price", "value", "unrealized_pnl"},
	}
	for _, p := range positions {
		rows = append(rows, []string{
			p.Ticker,
			strconv.FormatInt(p.Shares, 10),
			money(p.EntryPrice),
			p.EntryDate.Format("2006-01-02"),
			money(p.CurrentPrice),
			money(p.Value()),
			money(p.UnrealizedPnL()),
		})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Run identifies one saved run directory.
type Run struct {
	ID         string    `json:"id"`
	FinishedAt time.Time `json:"finished_at"`
}

// ListRuns returns saved run directories, newest first by name.
func ListRuns(baseDir string) ([]Run, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []Run
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if !entry.IsDir() {
			continue
		}
		finished, err := time.Parse("20060102_150405", entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, Run{ID: entry.Name(), FinishedAt: finished})
	}
	return runs, nil
}

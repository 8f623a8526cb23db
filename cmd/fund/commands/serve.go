package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lfcamara/b3fund/internal/api"
	"github.com/lfcamara/b3fund/internal/api/handlers"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Starts the REST API server over saved backtest results.

Endpoints:
  GET /health                      - Health check
  GET /api/results                 - List saved runs
  GET /api/results/{id}            - Full run result
  GET /api/results/{id}/metrics    - Run metrics
  GET /api/results/{id}/history    - Daily portfolio history (CSV)

Example:
  go run ./cmd/fund serve
  go run ./cmd/fund serve --port 8090`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default: from env)")
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := initDeps()
	if err != nil {
		return err
	}
	defer d.db.Close()

	if servePort != "" {
		d.cfg.Port = servePort
	}

	resultHandler := handlers.NewResultHandler(d.cfg.Backtest.OutputDir, d.log)
	router := api.NewRouter(resultHandler, d.log)
	server := api.New(d.cfg, d.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		d.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

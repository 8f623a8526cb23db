package commands

import (
	"fmt"
	"runtime"

	"github.com/lfcamara/b3fund/internal/backtest"
	"github.com/lfcamara/b3fund/internal/marketdata"
	"github.com/lfcamara/b3fund/internal/marketdata/brapi"
	"github.com/lfcamara/b3fund/internal/signal"
	"github.com/lfcamara/b3fund/internal/strategy"
	"github.com/lfcamara/b3fund/pkg/config"
	"github.com/lfcamara/b3fund/pkg/database"
	"github.com/lfcamara/b3fund/pkg/logger"
)

// deps bundles the shared wiring every command starts from.
type deps struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	repo    *marketdata.Repository
	service *marketdata.Service
}

// initDeps loads config, connects the database and builds the market
// data service. Callers own the returned DB and must Close it.
func initDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	repo := marketdata.NewRepository(db.Pool)
	fetcher := brapi.New(cfg.Provider, log)
	service := marketdata.NewService(repo, fetcher, log)

	return &deps{
		cfg:     cfg,
		log:     log,
		db:      db,
		repo:    repo,
		service: service,
	}, nil
}

// buildEngine assembles the simulation engine on top of the shared deps.
func (d *deps) buildEngine() (*backtest.Engine, error) {
	strategyCfg := strategy.Default()
	if strategyFile != "" {
		loaded, err := strategy.Load(strategyFile)
		if err != nil {
			return nil, fmt.Errorf("load strategy config: %w", err)
		}
		strategyCfg = *loaded
	}

	generator := signal.NewHeuristic(d.repo)
	pool := signal.NewPool(generator, runtime.NumCPU(), d.log)
	rebalancer := strategy.NewRebalancer(strategyCfg, d.log)

	return backtest.NewEngine(d.service, pool, rebalancer, d.log), nil
}

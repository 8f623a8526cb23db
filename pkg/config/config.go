package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Market data provider
	Provider ProviderConfig

	// Backtest defaults
	Backtest BacktestConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ProviderConfig holds market data provider configuration.
type ProviderConfig struct {
	BaseURL   string
	Token     string
	RateLimit float64 // requests per second
	Timeout   time.Duration
}

// BacktestConfig holds default simulation parameters.
// CLI flags override these per run.
type BacktestConfig struct {
	InitialCapital float64
	CommissionPct  float64
	MinPositionPct float64 // minimum position size, percent of total value
	MaxPositionPct float64 // maximum position size, percent of total value
	SelicDailyRate float64 // daily rate applied to idle cash
	OutputDir      string
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Provider: ProviderConfig{
			BaseURL:   getEnv("PROVIDER_BASE_URL", "https://brapi.dev/api"),
			Token:     getEnv("PROVIDER_TOKEN", ""),
			RateLimit: getEnvAsFloat("PROVIDER_RATE_LIMIT", 5.0),
			Timeout:   getEnvAsDuration("PROVIDER_TIMEOUT", "30s"),
		},

		Backtest: BacktestConfig{
			InitialCapital: getEnvAsFloat("BACKTEST_INITIAL_CAPITAL", 1_000_000),
			CommissionPct:  getEnvAsFloat("BACKTEST_COMMISSION_PCT", 0.001),
			MinPositionPct: getEnvAsFloat("BACKTEST_MIN_POSITION_PCT", 2.0),
			MaxPositionPct: getEnvAsFloat("BACKTEST_MAX_POSITION_PCT", 10.0),
			SelicDailyRate: getEnvAsFloat("BACKTEST_SELIC_DAILY_RATE", 0.00035),
			OutputDir:      getEnv("BACKTEST_OUTPUT_DIR", "backtest_results"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("BACKTEST_INITIAL_CAPITAL must be > 0")
	}
	if c.Backtest.CommissionPct < 0 {
		return fmt.Errorf("BACKTEST_COMMISSION_PCT must be >= 0")
	}
	if c.Backtest.MinPositionPct <= 0 || c.Backtest.MaxPositionPct < c.Backtest.MinPositionPct {
		return fmt.Errorf("position size bounds invalid: min=%.2f max=%.2f",
			c.Backtest.MinPositionPct, c.Backtest.MaxPositionPct)
	}

	if c.Provider.RateLimit <= 0 {
		return fmt.Errorf("PROVIDER_RATE_LIMIT must be > 0")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for the catalog and universe databases (always absolute)
	Port            int
	DevMode         bool
	LogLevel        string
	FundFeedURL     string  // Base URL of the upstream fund data feed
	FundSyncMinutes int     // Interval between fund universe refreshes
	DriftTolerance  float64 // Per-class allocation drift ignored by the rebalancer
	DefaultTopN     int     // Funds recommended per asset class when the request doesn't say
	MinTradeAmount  float64 // Smallest buy worth placing, sub-minimum buys are lifted to it
	FundFeedTimeout int     // Fund feed HTTP timeout in seconds
	BlendSmoothing  float64 // Mix-in weight applied to secondary personas in blended classification
	StaleAfterHours int     // Universe age after which funds are considered stale
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("ENGINE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("ENGINE_PORT", 8002),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		FundFeedURL:     getEnv("FUND_FEED_URL", "http://localhost:8000"),
		FundSyncMinutes: getEnvAsInt("FUND_SYNC_MINUTES", 30),
		DriftTolerance:  getEnvAsFloat("DRIFT_TOLERANCE", 0.02),
		DefaultTopN:     getEnvAsInt("DEFAULT_TOP_N", 3),
		MinTradeAmount:  getEnvAsFloat("MIN_TRADE_AMOUNT", 500),
		FundFeedTimeout: getEnvAsInt("FUND_FEED_TIMEOUT_SECONDS", 30),
		BlendSmoothing:  getEnvAsFloat("BLEND_SMOOTHING", 0.15),
		StaleAfterHours: getEnvAsInt("STALE_AFTER_HOURS", 24),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.FundFeedURL == "" {
		return fmt.Errorf("FUND_FEED_URL is required")
	}
	if c.FundSyncMinutes <= 0 {
		return fmt.Errorf("FUND_SYNC_MINUTES must be positive, got %d", c.FundSyncMinutes)
	}
	if c.DriftTolerance < 0 || c.DriftTolerance >= 1 {
		return fmt.Errorf("DRIFT_TOLERANCE must be in [0, 1), got %f", c.DriftTolerance)
	}
	if c.BlendSmoothing < 0 || c.BlendSmoothing >= 1 {
		return fmt.Errorf("BLEND_SMOOTHING must be in [0, 1), got %f", c.BlendSmoothing)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the infrastructure settings. The analysis itself (region,
// window, points, thresholds) is fixed in code.
type AppConfig struct {
	// Dataset source: SourceURL takes precedence over SourceFile.
	SourceURL  string
	SourceFile string

	// Boundary dataset: BoundaryURL takes precedence over BoundaryFile.
	BoundaryURL  string
	BoundaryFile string

	// CachePath enables the SQLite query cache when set.
	CachePath string
	CacheTTL  time.Duration // 0 = never expires

	HTTPTimeout      time.Duration
	FetchConcurrency int

	OutputDir string

	RefreshInterval time.Duration

	// In-memory store retention.
	StoreMaxHistory int           // max number of reports (0 = unlimited)
	StoreMaxAge     time.Duration // max age of reports (0 = unlimited)

	Port     string
	LogLevel string
}

// Load reads configuration from .env and the environment with defaults.
// A missing .env file is not an error.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		SourceURL:    os.Getenv("SOURCE_URL"),
		SourceFile:   os.Getenv("SOURCE_FILE"),
		BoundaryURL:  os.Getenv("BOUNDARY_URL"),
		BoundaryFile: os.Getenv("BOUNDARY_FILE"),
		CachePath:    os.Getenv("CACHE_PATH"),
		OutputDir:    getenvDefault("OUTPUT_DIR", "out"),
		Port:         getenvDefault("PORT", "8080"),
		LogLevel:     getenvDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "0s"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "24h"); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "720h"); err != nil {
		return nil, err
	}
	if cfg.FetchConcurrency, err = getenvInt("FETCH_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 30); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that a dataset and a boundary source are configured.
func (c *AppConfig) Validate() error {
	if c.SourceURL == "" && c.SourceFile == "" {
		return fmt.Errorf("one of SOURCE_URL or SOURCE_FILE must be set")
	}
	if c.BoundaryURL == "" && c.BoundaryFile == "" {
		return fmt.Errorf("one of BOUNDARY_URL or BOUNDARY_FILE must be set")
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

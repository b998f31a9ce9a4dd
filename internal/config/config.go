// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/courtcast and cmd/api.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CurrentSeason is the season the pipeline targets when no --season
// flag or SEASON variable says otherwise. A season is named by the
// year it starts in, so 2024 is the 2024-25 season.
const CurrentSeason = 2024

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Pipeline
	Season   int
	CacheDir string

	// Fetching
	FetchRequestsPerMinute int
	UserAgent              string
	RaptorSource           string

	// Simulation
	SimTrials  int
	SimWorkers int
	SimSeed    int64
	WagerPath  string

	// Database (optional; only the archive commands and the API need it)
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting (API side)
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cacheDir := envOr("COURTCAST_CACHE_DIR", "")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cacheDir = filepath.Join(home, ".courtcast", "cache")
	}

	return &Config{
		Season:   envInt("SEASON", CurrentSeason),
		CacheDir: cacheDir,

		FetchRequestsPerMinute: envInt("FETCH_REQUESTS_PER_MINUTE", 18),
		UserAgent:              envOr("FETCH_USER_AGENT", ""),
		RaptorSource:           envOr("RAPTOR_SOURCE", ""),

		SimTrials:  envInt("SIM_TRIALS", 1000),
		SimWorkers: envInt("SIM_WORKERS", 4),
		SimSeed:    int64(envInt("SIM_SEED", 1)),
		WagerPath:  envOr("WAGER_PATH", ""),

		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,
	}, nil
}

// RequireDatabase errors unless a database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	return nil
}

// SeasonSlug renders a season the way the roster site spells it,
// "2024-2025".
func (c *Config) SeasonSlug() string {
	return fmt.Sprintf("%d-%d", c.Season, c.Season+1)
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// Package config provides configuration management for the alpha backend.
//
// Configuration is loaded from environment variables (optionally via a
// .env file). There is no settings-database override layer here: unlike
// end-user credentials, the values this package controls (retention
// horizons, vendor endpoints, scheduler toggles) are operational and are
// expected to be managed through the deployment environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/marketpulse/alpha-backend/internal/utils"
)

// Config holds application configuration for the ingestion/alpha backend.
type Config struct {
	DataDir  string // base directory for the three SQLite databases
	LogLevel string // debug, info, warn, error
	DevMode  bool

	// Vendor endpoints and budgets (C2).
	VendorBaseURL       string        // base URL for the quote/flow vendor
	VendorIntradayWSURL string        // optional push-feed URL; empty disables the websocket path
	VendorRateLimitRPS  int           // requests per second budget enforced by adapters
	VendorTimeout       time.Duration // per-request HTTP timeout

	// Retention horizons (§3), in days.
	RetentionDailyBarDays   int // N1, default 1095
	RetentionMoneyFlowDays  int // N2
	RetentionSectorFlowDays int // N3
	RetentionHotRankDays    int // N4, default ~30

	// Scheduler (C6).
	SchedulerEnabled  bool
	CatchUpWindowDays int // K: how many trailing days catch_up inspects
	CatchUpMinQuorum  int // minimum row count per day before a day is considered incomplete
	WorkerPoolSize    int // offloaded job worker pool size
	HealthShedRSSMB   int // used-system-memory ceiling for health.Gate, see internal/health

	// Hot-rank sources (shared by C6's hot_rank job and C8's predictor).
	HotRankSources []string

	// Alpha pipeline (C7).
	RSRSIndexCode string // default broad-market index code used for regime detection

	// Next-day predictor (C8).
	PredictorCacheDir string // disk-persisted concept->virtual-board map, see internal/diskcache

	// Concept clustering (C5).
	ConceptBlacklist []string // sector/concept name substrings excluded from presentation

	// Archival (§6 [ADD]).
	ArchiveBucket string // optional S3-compatible bucket for pre-delete retention archival
	ArchiveRegion string
}

// Load reads configuration from environment variables, applying the same
// defaults documented in §6's "Environment" list.
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load()

	dataDir := ""
	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		dataDir = dataDirOverride[0]
	} else {
		dataDir = getEnv("DATA_DIR", "")
		if dataDir == "" {
			dataDir = "./data"
		}
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		VendorBaseURL:       getEnv("VENDOR_BASE_URL", "https://quote-vendor.example.com/api"),
		VendorIntradayWSURL: getEnv("VENDOR_WS_URL", ""),
		VendorRateLimitRPS:  getEnvAsInt("VENDOR_RATE_LIMIT_RPS", 5),
		VendorTimeout:       time.Duration(getEnvAsInt("VENDOR_TIMEOUT_SECONDS", 10)) * time.Second,

		RetentionDailyBarDays:   getEnvAsInt("RETENTION_DAILY_BAR_DAYS", 1095),
		RetentionMoneyFlowDays:  getEnvAsInt("RETENTION_MONEY_FLOW_DAYS", 1095),
		RetentionSectorFlowDays: getEnvAsInt("RETENTION_SECTOR_FLOW_DAYS", 1095),
		RetentionHotRankDays:    getEnvAsInt("RETENTION_HOT_RANK_DAYS", 30),

		SchedulerEnabled:  getEnvAsBool("SCHEDULER_ENABLED", true),
		CatchUpWindowDays: getEnvAsInt("CATCH_UP_WINDOW_DAYS", 10),
		CatchUpMinQuorum:  getEnvAsInt("CATCH_UP_MIN_QUORUM", 50),
		WorkerPoolSize:    getEnvAsInt("WORKER_POOL_SIZE", 4),
		HealthShedRSSMB:   getEnvAsInt("HEALTH_SHED_RSS_MB", 1536),

		HotRankSources: utils.ParseCSV(getEnv("HOT_RANK_SOURCES", "xueqiu,dongcai")),

		RSRSIndexCode: getEnv("RSRS_INDEX_CODE", "000852"), // broad-market 1000-index, per §6

		PredictorCacheDir: getEnv("PREDICTOR_CACHE_DIR", filepath.Join(absDataDir, "predictor_cache")),

		ConceptBlacklist: utils.ParseCSV(getEnv("CONCEPT_BLACKLIST", "")),

		ArchiveBucket: getEnv("ARCHIVE_BUCKET", ""),
		ArchiveRegion: getEnv("ARCHIVE_REGION", "us-east-1"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration invariants that would otherwise fail
// confusingly deep inside a scheduled job.
func (c *Config) Validate() error {
	if c.WorkerPoolSize < 1 {
		return fmt.Errorf("worker pool size must be at least 1, got %d", c.WorkerPoolSize)
	}
	if c.RetentionHotRankDays < 1 {
		return fmt.Errorf("hot rank retention must be at least 1 day, got %d", c.RetentionHotRankDays)
	}
	return nil
}

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

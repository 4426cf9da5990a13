package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Source modes.
const (
	SourcePostgres  = "postgres"
	SourceSynthetic = "synthetic"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Caching core
	BucketWidth   time.Duration // fixed bucket duration
	CacheCapacity int           // max resident buckets

	// Prefetching
	SequentialRunThreshold int // K: consecutive step-1 accesses to call a scan
	HistoryLength          int // N: per-instrument access history size
	PrefetchWorkers        int
	PrefetchQueueSize      int

	// Instrument metadata cache
	MetadataTTL time.Duration

	// Trade source
	SourceMode   string // "postgres" or "synthetic"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Caching core defaults: hourly buckets, roughly 8 days resident
		CacheCapacity: getIntOrDefault("CACHE_CAPACITY", 200),
		BucketWidth:   getDurationOrDefault("BUCKET_WIDTH", time.Hour),

		// Prefetching defaults
		SequentialRunThreshold: getIntOrDefault("SEQUENTIAL_RUN_THRESHOLD", 3),
		HistoryLength:          getIntOrDefault("HISTORY_LENGTH", 16),
		PrefetchWorkers:        getIntOrDefault("PREFETCH_WORKERS", 2),
		PrefetchQueueSize:      getIntOrDefault("PREFETCH_QUEUE_SIZE", 64),

		// Metadata cache defaults
		MetadataTTL: getDurationOrDefault("METADATA_TTL", 24*time.Hour),

		// Trade source defaults
		SourceMode:   getEnvOrDefault("SOURCE_MODE", SourceSynthetic),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "tradecache"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "tradecache123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "tradecache"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.BucketWidth <= 0 {
		return fmt.Errorf("BUCKET_WIDTH must be positive, got %v", c.BucketWidth)
	}

	if c.CacheCapacity <= 0 {
		return fmt.Errorf("CACHE_CAPACITY must be positive, got %d", c.CacheCapacity)
	}

	if c.SequentialRunThreshold < 2 {
		return fmt.Errorf("SEQUENTIAL_RUN_THRESHOLD must be at least 2, got %d", c.SequentialRunThreshold)
	}

	if c.HistoryLength < c.SequentialRunThreshold {
		return fmt.Errorf("HISTORY_LENGTH must be at least SEQUENTIAL_RUN_THRESHOLD (%d), got %d",
			c.SequentialRunThreshold, c.HistoryLength)
	}

	if c.PrefetchWorkers <= 0 {
		return fmt.Errorf("PREFETCH_WORKERS must be positive, got %d", c.PrefetchWorkers)
	}

	if c.PrefetchQueueSize <= 0 {
		return fmt.Errorf("PREFETCH_QUEUE_SIZE must be positive, got %d", c.PrefetchQueueSize)
	}

	if c.SourceMode != SourcePostgres && c.SourceMode != SourceSynthetic {
		return fmt.Errorf("SOURCE_MODE must be %q or %q, got %q", SourcePostgres, SourceSynthetic, c.SourceMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/quantumflip/internal/utils"
	"github.com/joho/godotenv"
)

// DefaultPrivacySalt is used when PRIVACY_SALT is unset. It is published in
// this source file, so pseudonyms derived from it can be recomputed by anyone
// who knows the identifier. Deployments handling real identities must override it.
const DefaultPrivacySalt = "default_quantum_salt"

// WriteTimeout bounds every HTTP response. A trial run of MaxTrialsPerRequest
// records must finish its inter-batch waits RunTimeMargin before it.
const (
	WriteTimeout  = 15 * time.Second
	RunTimeMargin = 5 * time.Second
)

// Backend names accepted by QUANTUM_BACKEND
const (
	BackendSimulator = "simulator"
	BackendClassical = "classical"
)

// Config holds application configuration
type Config struct {
	Port           int
	LogLevel       string
	DevMode        bool
	AllowedOrigins []string

	PrivacySalt string
	Backend     string // simulator or classical

	MaxBatchSize        int           // shots per source call
	BatchDelay          time.Duration // pause between batches of one run
	MaxTrialsPerRequest int
	DefaultEpsilon      float64
	StrictStats         bool // reject malformed stats records instead of skipping them

	SelfTestSchedule string // cron spec, empty disables the self-test (SELF_TEST_SCHEDULE=off)
	SelfTestShots    int
	SelfTestAlpha    float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnvAsInt("GO_PORT", 5001),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		AllowedOrigins:      utils.ParseCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PrivacySalt:         getEnv("PRIVACY_SALT", DefaultPrivacySalt),
		Backend:             strings.ToLower(getEnv("QUANTUM_BACKEND", BackendSimulator)),
		MaxBatchSize:        getEnvAsInt("MAX_BATCH_SIZE", 100),
		BatchDelay:          getEnvAsDuration("BATCH_DELAY", 100*time.Millisecond),
		MaxTrialsPerRequest: getEnvAsInt("MAX_TRIALS_PER_REQUEST", 1000),
		DefaultEpsilon:      getEnvAsFloat("DP_EPSILON", 0.1),
		StrictStats:         getEnvAsBool("STATS_STRICT", true),
		SelfTestSchedule:    getEnv("SELF_TEST_SCHEDULE", "@every 5m"),
		SelfTestShots:       getEnvAsInt("SELF_TEST_SHOTS", 1000),
		SelfTestAlpha:       getEnvAsFloat("SELF_TEST_ALPHA", 0.001),
	}

	if strings.EqualFold(cfg.SelfTestSchedule, "off") {
		cfg.SelfTestSchedule = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.PrivacySalt == "" {
		return fmt.Errorf("privacy salt must not be empty")
	}
	if c.Backend != BackendSimulator && c.Backend != BackendClassical {
		return fmt.Errorf("unknown quantum backend %q (want %q or %q)", c.Backend, BackendSimulator, BackendClassical)
	}
	// The sources refuse more than 100 shots per call.
	if c.MaxBatchSize < 1 || c.MaxBatchSize > 100 {
		return fmt.Errorf("max batch size must be between 1 and 100, got %d", c.MaxBatchSize)
	}
	if c.BatchDelay < 0 {
		return fmt.Errorf("batch delay must not be negative, got %s", c.BatchDelay)
	}
	if c.MaxTrialsPerRequest < 1 {
		return fmt.Errorf("max trials per request must be positive, got %d", c.MaxTrialsPerRequest)
	}
	if waits := c.maxRunWaits(); c.BatchDelay > 0 && waits > int((WriteTimeout-RunTimeMargin)/c.BatchDelay) {
		return fmt.Errorf("%d trials with batch size %d and batch delay %s wait %d times, longer than the %s response budget",
			c.MaxTrialsPerRequest, c.MaxBatchSize, c.BatchDelay, waits, WriteTimeout-RunTimeMargin)
	}
	if c.DefaultEpsilon <= 0 || math.IsInf(c.DefaultEpsilon, 0) || math.IsNaN(c.DefaultEpsilon) {
		return fmt.Errorf("epsilon must be a positive finite number, got %v", c.DefaultEpsilon)
	}
	if c.SelfTestSchedule != "" {
		if c.SelfTestShots < 1 {
			return fmt.Errorf("self-test shots must be positive, got %d", c.SelfTestShots)
		}
		if c.SelfTestAlpha <= 0 || c.SelfTestAlpha >= 1 {
			return fmt.Errorf("self-test alpha must be in (0, 1), got %v", c.SelfTestAlpha)
		}
	}

	return nil
}

// MaxRunDelay is the total time the largest allowed trial run spends
// waiting between batches.
func (c *Config) MaxRunDelay() time.Duration {
	return time.Duration(c.maxRunWaits()) * c.BatchDelay
}

func (c *Config) maxRunWaits() int {
	if c.MaxBatchSize < 1 || c.MaxTrialsPerRequest < 1 {
		return 0
	}
	return (c.MaxTrialsPerRequest+c.MaxBatchSize-1)/c.MaxBatchSize - 1
}

// PrivacySaltConfigured reports whether an operator supplied a salt.
func (c *Config) PrivacySaltConfigured() bool {
	return c.PrivacySalt != DefaultPrivacySalt
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

// getEnvAsDuration accepts Go duration strings ("250ms") or a bare number of milliseconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

// Package config builds the immutable runtime configuration. It is
// constructed once at startup and passed into each component; nothing in the
// process mutates it afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all orchestrator settings.
type Config struct {
	LedgerPath  string
	ArchivePath string
	OutputDir   string
	LogPath     string

	MinBatch int
	MaxBatch int
	Workers  int

	BatchPauseMean  time.Duration
	BatchPauseStd   time.Duration
	BatchPauseFloor time.Duration
	ItemPauseMean   time.Duration
	ItemPauseStd    time.Duration
	ItemPauseFloor  time.Duration
	RetryCooldown   time.Duration

	ConcurrentFragments int
	CookiesPath         string
	ProxyURL            string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from an optional .env file and the environment,
// falling back to defaults.
func Load() *Config {
	// Missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	home, _ := os.UserHomeDir()
	defaultOutput := filepath.Join(home, "Downloads", "YouTube")

	return &Config{
		LedgerPath:  getEnv("LEDGER_PATH", filepath.Join("output", "download.csv")),
		ArchivePath: getEnv("ARCHIVE_PATH", filepath.Join("output", "download_archive.txt")),
		OutputDir:   getEnv("OUTPUT_DIR", defaultOutput),
		LogPath:     getEnv("LOG_PATH", ""),

		MinBatch: getEnvInt("MIN_BATCH_SIZE", 4),
		MaxBatch: getEnvInt("MAX_BATCH_SIZE", 16),
		Workers:  getEnvInt("MAX_WORKERS", 2),

		BatchPauseMean:  getEnvDuration("BATCH_PAUSE_MEAN", 30*time.Second),
		BatchPauseStd:   getEnvDuration("BATCH_PAUSE_STD", 15*time.Second),
		BatchPauseFloor: getEnvDuration("BATCH_PAUSE_FLOOR", 5*time.Second),
		ItemPauseMean:   getEnvDuration("ITEM_PAUSE_MEAN", 5*time.Second),
		ItemPauseStd:    getEnvDuration("ITEM_PAUSE_STD", 3*time.Second),
		ItemPauseFloor:  getEnvDuration("ITEM_PAUSE_FLOOR", 2*time.Second),
		RetryCooldown:   getEnvDuration("RETRY_COOLDOWN", 10*time.Second),

		ConcurrentFragments: getEnvInt("CONCURRENT_FRAGMENTS", 4),
		CookiesPath:         getEnv("COOKIES_PATH", ""),
		ProxyURL:            getEnv("PROXY_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if c.LedgerPath == "" {
		errors = append(errors, "LEDGER_PATH cannot be empty")
	}
	if c.ArchivePath == "" {
		errors = append(errors, "ARCHIVE_PATH cannot be empty")
	}
	if c.OutputDir == "" {
		errors = append(errors, "OUTPUT_DIR cannot be empty")
	}
	if c.MinBatch < 1 {
		errors = append(errors, fmt.Sprintf("MIN_BATCH_SIZE must be at least 1, got: %d", c.MinBatch))
	}
	if c.MaxBatch < c.MinBatch {
		errors = append(errors, fmt.Sprintf("MAX_BATCH_SIZE must be >= MIN_BATCH_SIZE, got: %d < %d", c.MaxBatch, c.MinBatch))
	}
	if c.Workers < 1 {
		errors = append(errors, fmt.Sprintf("MAX_WORKERS must be at least 1, got: %d", c.Workers))
	}
	if c.BatchPauseFloor < 0 || c.ItemPauseFloor < 0 {
		errors = append(errors, "pause floors cannot be negative")
	}
	if c.RetryCooldown < 0 {
		errors = append(errors, "RETRY_COOLDOWN cannot be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}
	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

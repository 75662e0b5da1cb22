// Package config provides centralized configuration for the evosync server.
// All configurable values are loaded from environment variables with sensible defaults.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration values.
type Config struct {
	// Port is the HTTP server listen port.
	Port string

	// DBPath is the path to the SQLite database file.
	DBPath string

	// FeedURL is the proposal feed endpoint.
	FeedURL string

	// ContentBaseURL is the base URL for raw proposal markdown files.
	ContentBaseURL string

	// PageBaseURL is the base URL for the rendered proposal pages, used as a
	// fallback when the raw file is missing. Empty disables the fallback.
	PageBaseURL string

	// HTTPTimeout is the timeout for outgoing HTTP requests (feed, content).
	HTTPTimeout time.Duration

	// FetchConcurrency bounds parallel content downloads within one sync cycle.
	FetchConcurrency int

	// LogLevel selects the minimum log level: "debug", "info", "warn", "error".
	LogLevel string

	// PrettyLog enables human-readable console output instead of JSON.
	PrettyLog bool

	// CORSOrigin is the allowed CORS origin. Defaults to "*".
	CORSOrigin string
}

// Load reads configuration from environment variables, applying defaults.
func Load() Config {
	return Config{
		Port:             envOr("PORT", "8080"),
		DBPath:           envOr("DB_PATH", "evosync.db"),
		FeedURL:          envOr("FEED_URL", "https://download.swift.org/swift-evolution/v1/evolution.json"),
		ContentBaseURL:   envOr("CONTENT_BASE_URL", "https://raw.githubusercontent.com/swiftlang/swift-evolution/main/proposals"),
		PageBaseURL:      envOr("PAGE_BASE_URL", "https://github.com/swiftlang/swift-evolution/blob/main/proposals"),
		HTTPTimeout:      envDuration("HTTP_TIMEOUT", 30*time.Second),
		FetchConcurrency: envInt("FETCH_CONCURRENCY", 8),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		PrettyLog:        envBool("PRETTY_LOG", false),
		CORSOrigin:       envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

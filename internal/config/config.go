// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

// Package config provides layered configuration loading for Pagepulse.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config File: optional YAML config file for persistent settings
//  3. Environment Variables: override any setting
//
// The resulting Config is immutable after Load() and safe for concurrent
// read access from multiple goroutines.
package config

import (
	"time"
)

// Config holds all application configuration loaded from environment
// variables and config files.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Retention RetentionConfig `koanf:"retention"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Port is the TCP port the HTTP server listens on.
	Port int `koanf:"port"`

	// Host is the bind address.
	Host string `koanf:"host"`

	// ReadTimeout bounds reading the full request including the body.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writes of the response.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment selects error verbosity: "development" returns detailed
	// store error messages, "production" returns generic ones.
	Environment string `koanf:"environment"`
}

// DatabaseConfig holds DuckDB configuration.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" is accepted for tests.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage (DuckDB syntax, e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`

	// QueryTimeout is the default deadline applied to store calls whose
	// caller context carries none.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// IngestConfig holds ingestion pipeline limits.
type IngestConfig struct {
	// MaxBatchSize is the bulk ingestion cap. Batches exceeding it are
	// rejected outright without partial processing.
	MaxBatchSize int `koanf:"max_batch_size"`

	// MaxBodyBytes caps request body size on the track endpoints.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// RetentionConfig holds the retention janitor configuration.
type RetentionConfig struct {
	// Enabled turns the background janitor on.
	Enabled bool `koanf:"enabled"`

	// MaxAgeDays is the age threshold the janitor deletes past.
	MaxAgeDays int `koanf:"max_age_days"`

	// Interval is how often the janitor runs.
	Interval time.Duration `koanf:"interval"`
}

// APIConfig holds response shaping limits for the reporting endpoints.
type APIConfig struct {
	// DefaultPageSize is the default limit on the events listing.
	DefaultPageSize int `koanf:"default_page_size"`

	// MaxPageSize is the hard cap on the events listing limit.
	MaxPageSize int `koanf:"max_page_size"`

	// TopPages caps the top-pages breakdown.
	TopPages int `koanf:"top_pages"`

	// TopCampaigns caps the dashboard campaign attribution breakdown.
	TopCampaigns int `koanf:"top_campaigns"`

	// UTMReportLimit caps the dedicated utm-report breakdown.
	UTMReportLimit int `koanf:"utm_report_limit"`
}

// SecurityConfig holds the admin credential, CORS, and rate limit settings.
type SecurityConfig struct {
	// AdminToken is the bearer credential required by DELETE /cleanup.
	// Cleanup is refused entirely when empty.
	AdminToken string `koanf:"admin_token"`

	// CORSOrigins is the allowed origin list. Tracking beacons are loaded
	// from arbitrary blog pages, so "*" is a deliberate default.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitWriteReqs / RateLimitWriteWindow bound the track endpoints per IP.
	RateLimitWriteReqs   int           `koanf:"rate_limit_write_reqs"`
	RateLimitWriteWindow time.Duration `koanf:"rate_limit_write_window"`

	// RateLimitReadReqs / RateLimitReadWindow bound the reporting endpoints per IP.
	RateLimitReadReqs   int           `koanf:"rate_limit_read_reqs"`
	RateLimitReadWindow time.Duration `koanf:"rate_limit_read_window"`

	// RateLimitDisabled turns rate limiting off, for tests and local development.
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`

	// TrustedProxies enables X-Forwarded-For handling when non-empty.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// LoggingConfig holds log output configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment != "production"
}

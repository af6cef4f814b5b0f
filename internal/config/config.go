// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0, imports may run long)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 10m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"10m"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver selects the store backend: postgres or sqlite (default: sqlite)
	Driver string `env:"DB_DRIVER" default:"sqlite"`

	// URL is the connection string or, for sqlite, the database file path (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds feed import settings.
type ImportConfig struct {
	// SheetURL is the spreadsheet share link imported at startup (optional)
	SheetURL string `env:"GOOGLE_SHEETS_URL"`

	// ReplaceExisting clears public feeds before automatic imports (default: false)
	ReplaceExisting bool `env:"CLEAR_FEEDS_ON_IMPORT" default:"false"`

	// StartupDelay is the wait before the startup import (default: 1.5s)
	StartupDelay time.Duration `env:"IMPORT_STARTUP_DELAY" default:"1500ms"`

	// SyncInterval repeats the sheet import; 0 disables it (default: 0)
	SyncInterval time.Duration `env:"IMPORT_SYNC_INTERVAL" default:"0s"`

	// FetchTimeout bounds one sheet download, retries included (default: 30s)
	FetchTimeout time.Duration `env:"IMPORT_FETCH_TIMEOUT" default:"30s"`

	// FetchRetries is the number of retries after a transient failure (default: 3)
	FetchRetries int `env:"IMPORT_FETCH_RETRIES" default:"3"`

	// MaxRedirects caps redirects followed per download (default: 10)
	MaxRedirects int `env:"IMPORT_MAX_REDIRECTS" default:"10"`

	// MaxBodySize is the largest accepted source in bytes (default: 100MB)
	MaxBodySize int64 `env:"IMPORT_MAX_BODY_SIZE" default:"104857600"`

	// LockWait is how long an import waits for the one in progress (default: 30s)
	LockWait time.Duration `env:"IMPORT_LOCK_WAIT" default:"30s"`

	// FetchRate is requests per second allowed to the sheet host (default: 2)
	FetchRate float64 `env:"IMPORT_FETCH_RATE" default:"2"`

	// AllowedHosts limits sheet URLs sent in API requests. The host of
	// GOOGLE_SHEETS_URL is always allowed (default: docs.google.com)
	AllowedHosts []string `env:"IMPORT_ALLOWED_HOSTS" default:"docs.google.com"`
}

// SecurityConfig holds settings guarding the import endpoints.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose X-Real-IP is honoured
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey rejects import requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// RequestsPerMinute is the per-client request budget; 0 disables limiting (default: 60)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"60"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

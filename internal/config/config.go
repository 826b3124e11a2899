// Package config provides centralized configuration management for the pipeline.
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
	Staging    StagingConfig
	Storage    StorageConfig
	Notify     NotifyConfig
	Validation ValidationConfig
	Database   DatabaseConfig
	Server     ServerConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// StagingConfig holds the shared directory used to hand files between stages.
type StagingConfig struct {
	// Dir holds input.csv, cleaned.csv and rejected.csv (default: /shared)
	Dir string `env:"SHARED_DIR" default:"/shared"`
}

// StorageConfig holds object storage settings.
type StorageConfig struct {
	// Backend selects the object store implementation: gcs, s3 or file (default: gcs)
	Backend string `env:"STORAGE_BACKEND" default:"gcs"`

	// Bucket is the bucket both read from and published to
	Bucket string `env:"GCS_BUCKET" envAlt:"STORAGE_BUCKET" default:"finure-airflow"`

	// InputKey is the object key of the dataset to validate
	InputKey string `env:"INPUT_FILE_PATH" default:"datasets/in/dataset.csv"`

	// OutputPrefix is where cleaned files are published
	OutputPrefix string `env:"OUTPUT_FILE_PREFIX" default:"datasets/out"`

	// RejectPrefix is where reject reports are published
	RejectPrefix string `env:"REJECT_FILE_PREFIX" default:"datasets/reject"`

	// FileRoot is the root directory of the file backend (default: ./data)
	FileRoot string `env:"STORAGE_FILE_ROOT" default:"./data"`

	// Region is the AWS region for the s3 backend; empty uses the SDK default chain
	Region string `env:"AWS_REGION"`
}

// NotifyConfig holds chat webhook settings.
type NotifyConfig struct {
	// WebhookURL receives the run summary; empty disables notification
	WebhookURL string `env:"SLACK_WEBHOOK_URL" envAlt:"WEBHOOK_URL"`

	// Timeout bounds the wait on the webhook call (default: 10s)
	Timeout time.Duration `env:"NOTIFY_TIMEOUT" default:"10s"`
}

// ValidationConfig holds row validation settings.
type ValidationConfig struct {
	// RequireHeader treats row 1 as a header even when required names are missing
	RequireHeader bool `env:"REQUIRE_HEADER" default:"false"`
}

// DatabaseConfig holds settings for the optional run ledger.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty keeps run history in memory.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 5)
	MaxConns int `env:"DB_MAX_CONNS" default:"5"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`
}

// ServerConfig holds HTTP server settings for serve mode.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// MaxBodySize caps POST /api/validate request bodies in bytes (default: 100MB)
	MaxBodySize int64 `env:"SERVER_MAX_BODY_SIZE" default:"104857600"`
}

// SecurityConfig holds settings for the HTTP surface.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey guards run triggers with the X-API-Key header (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
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
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}

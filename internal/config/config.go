// Package config loads the environment-driven configuration shared by both
// MCP services.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the options recognised by both services. No other
// configuration is load-bearing for the core.
type Config struct {
	// BindAddress is the host:port the MCP HTTP transport listens on.
	BindAddress string
	// DatabaseURL is opaque; "memory" or "" disables the SurrealDB
	// write-through hook entirely.
	DatabaseURL string
	// LogLevel is informational and fed straight to internal/logging.
	LogLevel string
	// DatalogWorkerPoolSize bounds the blocking worker pool used by the
	// Datalog bridge.
	DatalogWorkerPoolSize int
	// DatalogQueryTimeoutMS is loaded from DATALOG_QUERY_TIMEOUT_MS but is
	// not passed to the query handler; a query that omits timeout_ms always
	// uses 5000.
	DatalogQueryTimeoutMS int
	// SessionIdleTTL is informational only; the core never sweeps
	// sessions itself (that is the transport's responsibility).
	SessionIdleTTL string
}

// defaults returns the built-in configuration. The bind address is supplied
// per-binary by the caller through defaultBind (8080 for Deep Analytics,
// 8081 for Logical Inference).
func defaults(defaultBind string) Config {
	return Config{
		BindAddress:           defaultBind,
		DatabaseURL:           "memory",
		LogLevel:              "info",
		DatalogWorkerPoolSize: 8,
		DatalogQueryTimeoutMS: 5000,
		SessionIdleTTL:        "",
	}
}

// Load reads configuration from the process environment, optionally
// layering in a .env file first (godotenv.Load is a no-op, not an error,
// when no .env file is present).
func Load(defaultBind string) Config {
	_ = godotenv.Load()

	cfg := defaults(defaultBind)

	if v := os.Getenv("BIND_ADDRESS"); v != "" {
		cfg.BindAddress = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("DATALOG_WORKER_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DatalogWorkerPoolSize = n
		}
	}
	if v := os.Getenv("DATALOG_QUERY_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DatalogQueryTimeoutMS = n
		}
	}
	if v := os.Getenv("SESSION_IDLE_TTL"); v != "" {
		cfg.SessionIdleTTL = v
	}

	return cfg
}

// IsMemoryOnly reports whether the configured DatabaseURL disables the
// SurrealDB write-through hook.
func (c Config) IsMemoryOnly() bool {
	return c.DatabaseURL == "" || c.DatabaseURL == "memory"
}

// Package logging provides structured logging configuration using zerolog,
// plus an optional on-disk debug log capture that can be toggled at runtime.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()

	log.Logger = logger
	setBaseWriter(output)

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Individual request dispatch (endpoint, attempt, spacing waits)
//   - Cache operations (hit/miss, key, TTL)
//   - Progress event publication
//
// Info: Normal operation events
//   - Collection fetch start/completion with counts
//   - Page fetch milestones
//   - Rate window rollover waits
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Retry attempts and backoff waits
//   - 429 cooldown pauses
//   - Per-record enrichment failures (record proceeds with defaults)
//   - Cache errors (fallback to direct request)
//
// Error: Error conditions requiring attention
//   - Terminal request rejections (after retries)
//   - Collection fetch failures (auth, not found, upstream)
//   - Configuration errors
//
// Context Fields:
//   - endpoint: Discogs endpoint path
//   - status: HTTP status code
//   - error_class: Error classification (client, server, rate_limit, network, ...)
//   - attempt: Retry attempt number
//   - record_id: Discogs release ID for per-record diagnostics
//   - page: Listing page number

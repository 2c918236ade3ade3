// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
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
	zerolog.SetGlobalLevel(toZerolog(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Str("service", "chronos").Logger()
	log.Logger = logger

	return logger
}

// ParseLevel validates a textual level. Matching is case-insensitive and
// "warning" is accepted for LevelWarn.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q (want debug, info, warn or error)", s)
	}
}

// toZerolog converts LogLevel to zerolog.Level, defaulting to info.
func toZerolog(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
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
//   - Rate limit decisions at the limit
//   - Upstream request flow and retry backoff
//   - Validated payload counts
//
// Info: Normal operation events
//   - Cache hits
//   - Successful acquisitions
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Rate limit exceeded
//   - Invalid input
//   - Cache read errors (treated as miss)
//   - Limiter backend errors (request allowed)
//   - Non-fatal cache write failures
//
// Error: Error conditions requiring attention
//   - Upstream fetch failures (after retries)
//   - Malformed upstream payloads
//   - Fatal cache write failures
//
// Context Fields:
//   - component: emitting package
//   - stage: acquisition pipeline stage
//   - month, day: requested date
//   - cache_key: history:{month}:{day}
//   - status: upstream HTTP status
//   - error_kind: apperr kind
//   - error_class: retry classification (client, server, rate_limit, network)
//   - attempt: retry attempt number
//   - request_id: HTTP request ID

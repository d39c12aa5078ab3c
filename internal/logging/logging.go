// Package logging provides the structured, per-tool-call logging both MCP
// services emit: one line per dispatched tool call carrying session_id,
// tool, duration_ms and (on failure) error_kind, plus the ordinary
// leveled logger beneath it.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Level represents log levels.
type Level = zerolog.Level

// Log levels exposed for convenience.
const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// Config holds logger configuration. Both services only ever log to a
// single console stream — there is no per-session log file, unlike the
// teacher's CLI, since these are long-running daemons rather than
// one-shot invocations.
type Config struct {
	// Level is the minimum log level to output.
	Level Level
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
}

// Init initializes the global logger with the given configuration.
func Init(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339

	Logger = zerolog.New(cfg.Output).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel parses a log level string (case-insensitive).
// Supported values: DEBUG, INFO, WARN, ERROR, FATAL.
// Returns InfoLevel if the string is not recognized.
func ParseLevel(level string) Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	case "FATAL":
		return FatalLevel
	default:
		return InfoLevel
	}
}

// Debug starts a new debug level log message.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Info starts a new info level log message.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn starts a new warn level log message.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error starts a new error level log message.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Fatal starts a new fatal level log message.
// Calling Msg or Send on the returned event will call os.Exit(1).
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// With creates a child logger with the given fields.
func With() zerolog.Context {
	return Logger.With()
}

// ToolCall logs a single MCP tool dispatch: Info on success, Warn with an
// error_kind field on failure. duration is the time spent inside the
// handler, excluding MCP transport framing.
func ToolCall(sessionID, tool string, duration time.Duration, err error) {
	durationMS := float64(duration) / float64(time.Millisecond)

	if err == nil {
		Info().
			Str("session_id", sessionID).
			Str("tool", tool).
			Float64("duration_ms", durationMS).
			Msg("tool call completed")
		return
	}

	kind := apperr.Internal
	if ae, ok := apperr.As(err); ok {
		kind = ae.Kind
	}
	Warn().
		Str("session_id", sessionID).
		Str("tool", tool).
		Float64("duration_ms", durationMS).
		Str("error_kind", string(kind)).
		Msg("tool call failed")
}

// init sets up a default logger so the package is usable without explicit initialization.
func init() {
	Init(Config{Level: InfoLevel, Output: os.Stderr})
}

// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelTrace logs every page body size and header set.
	LevelTrace LogLevel = "trace"

	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Component names used in the "component" field.
const (
	ComponentClient     = "cmr-client"
	ComponentPagination = "cmr-pagination"
	ComponentSearch     = "cmr-search"
	ComponentCache      = "cmr-cache"
	ComponentAuth       = "cmr-auth"
	ComponentProxy      = "cmr-proxy"
)

var levels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
}

// Config holds logger configuration.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to console output.
	Pretty bool

	// Output defaults to os.Stderr when nil.
	Output io.Writer

	// Fields are attached to every line, e.g. the CMR environment.
	Fields map[string]string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it. Durations are
// written in milliseconds to match the CMR "took" values.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = true

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	lc := zerolog.New(output).With().Timestamp()
	for k, v := range cfg.Fields {
		lc = lc.Str(k, v)
	}
	logger := lc.Logger()

	log.Logger = logger
	return logger
}

// ParseLevel converts a level name to a zerolog.Level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	if lvl, ok := levels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return lvl
	}
	return zerolog.InfoLevel
}

// ValidLevel reports whether ParseLevel knows the name.
func ValidLevel(level string) bool {
	_, ok := levels[strings.ToLower(strings.TrimSpace(level))]
	return ok
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithRequestID returns a child logger carrying the CMR request id.
func WithRequestID(logger zerolog.Logger, requestID string) zerolog.Logger {
	if requestID == "" {
		return logger
	}
	return logger.With().Str("request_id", requestID).Logger()
}

// Log Level Guidelines:
//
// Debug: page requests (page, page_size, scroll), cache hits and stores,
// scroll release.
//
// Info: search start and completion, cache flush, server startup/shutdown.
//
// Warn: time budget exceeded (partial results returned), scroll release
// failures, cache errors (the request goes upstream), HTTP error statuses.
//
// Error: failed searches (remote error, unknown response, network),
// configuration errors.
//
// Context Fields:
//   - component: cmr-client, cmr-pagination, cmr-search, cmr-cache, cmr-auth, cmr-proxy
//   - env: CMR environment of the process
//   - endpoint: CMR endpoint (collections, granules, /search/granules)
//   - request_id: X-Request-Id sent to CMR
//   - page, page_size, limit, hits, items: paging state
//   - elapsed_ms, max_time_ms: time budget
//   - error_class: client, server, network, unknown

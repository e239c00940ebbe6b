package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggingConfig mirrors the logging section of the gateway configuration.
type LoggingConfig struct {
	// Level is the minimum level: trace, debug, info, warn (or warning), error.
	Level string

	// Format is json, or console/pretty for human-readable lines.
	Format string

	// Output names the stream: stdout or stderr. Ignored when Writer is set.
	Output string

	// Writer overrides Output. The CLI points it at stderr so that stdout
	// carries only command results.
	Writer io.Writer

	// AddSource records the caller's file and line.
	AddSource bool

	// TimeFormat is the timestamp layout. Empty means RFC3339.
	TimeFormat string
}

// DefaultLoggingConfig returns JSON logs at info level on stdout.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// NewLogger builds the process logger. The level also becomes zerolog's
// global level.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	zerolog.TimeFieldFormat = timeFormat

	out := cfg.Writer
	if out == nil {
		out = outputStream(cfg.Output)
	}
	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}

	ctx := zerolog.New(out).With().Timestamp()
	if cfg.AddSource {
		ctx = ctx.Caller()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	return ctx.Logger().Level(level)
}

func outputStream(name string) io.Writer {
	if strings.EqualFold(name, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

// parseLevel maps a configured level name onto zerolog. Unknown or empty
// names fall back to info.
func parseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	if name == "" {
		return zerolog.InfoLevel
	}
	parsed, err := zerolog.ParseLevel(name)
	if err != nil || parsed == zerolog.NoLevel || parsed == zerolog.Disabled {
		return zerolog.InfoLevel
	}
	return parsed
}

// WithSourceContext tags a logger with the provider it talks to.
func WithSourceContext(logger zerolog.Logger, source string) zerolog.Logger {
	return logger.With().Str("source", source).Logger()
}

// WithSearchContext tags a logger with a search keyword and its provider.
func WithSearchContext(logger zerolog.Logger, keyword, source string) zerolog.Logger {
	return logger.With().
		Str("keyword", keyword).
		Str("source", source).
		Logger()
}

// WithPaperContext tags a logger with a provider-native paper ID.
func WithPaperContext(logger zerolog.Logger, paperID, source string) zerolog.Logger {
	return logger.With().
		Str("paper_id", paperID).
		Str("source", source).
		Logger()
}

// WithRequestContext adds the request ID carried by ctx, when present.
func WithRequestContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		return logger
	}
	return logger.With().Str("request_id", requestID).Logger()
}

// WithCacheContext tags a logger with a cache key and the request ID from ctx.
func WithCacheContext(ctx context.Context, logger zerolog.Logger, key string) zerolog.Logger {
	return WithRequestContext(ctx, logger.With().Str("cache_key", key).Logger())
}

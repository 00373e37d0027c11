// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days

	// Out receives console output. Defaults to stderr so that stdout
	// stays reserved for command results.
	Out io.Writer
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       false,
		FilePath:   filepath.Join(home, ".config", "insider-graph", "logs", "insidergraph.log"),
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
	}
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	if cfg.Console {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				if ll, ok := i.(string); ok {
					switch ll {
					case "debug":
						return "\033[36mDBG\033[0m"
					case "info":
						return "\033[32mINF\033[0m"
					case "warn":
						return "\033[33mWRN\033[0m"
					case "error":
						return "\033[31mERR\033[0m"
					default:
						return ll
					}
				}
				return "???"
			},
		}
		writers = append(writers, consoleWriter)
	}

	// File writer with rotation
	if cfg.File && cfg.FilePath != "" {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(writer).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name onto a zerolog level. Unknown names map to
// info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// ContextKey is the type for context keys.
type ContextKey string

// LoggerKey is the context key for the logger.
const LoggerKey ContextKey = "logger"

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithRun tags the logger with a run id.
func WithRun(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

// WithCompany tags the logger with a company symbol.
func WithCompany(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("company", symbol).Logger()
}

// WithOperation adds an operation name to the logger context.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// LogStage logs the completion of a pipeline stage.
func LogStage(logger zerolog.Logger, stage string, count int, duration time.Duration) {
	logger.Info().
		Str("event", "stage").
		Str("stage", stage).
		Int("count", count).
		Dur("duration", duration).
		Msg("Stage completed")
}

package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/a-gn/claude-setup/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxLogSizeMB  = 10
	defaultMaxLogBackups = 3
	defaultMaxLogAgeDays = 30
)

// Log levels - aliases for zerolog levels
const (
	ErrorLevel = zerolog.ErrorLevel
	WarnLevel  = zerolog.WarnLevel
	InfoLevel  = zerolog.InfoLevel
	DebugLevel = zerolog.DebugLevel
	TraceLevel = zerolog.TraceLevel
)

// Config defines the configuration for logger creation
type Config struct {
	Writer     io.Writer
	Console    io.Writer
	RunID      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Level      zerolog.Level
}

// New creates a new context with a logger attached
// For production: provide fs, leave Writer nil for rotated file logging
// For tests: provide a custom Writer (like strings.Builder) for in-memory logging
// Console, when set, mirrors every record in human-readable form.
func New(ctx context.Context, fs afero.Fs, config Config) (context.Context, error) {
	var writer io.Writer

	if config.Writer != nil {
		writer = config.Writer
	} else {
		if fs == nil {
			return nil, errors.New("filesystem required when no writer provided")
		}

		logFile, err := storage.New(fs).GetLogPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get log path: %w", err)
		}

		writer = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    orDefault(config.MaxSizeMB, defaultMaxLogSizeMB),
			MaxBackups: orDefault(config.MaxBackups, defaultMaxLogBackups),
			MaxAge:     orDefault(config.MaxAgeDays, defaultMaxLogAgeDays),
		}
	}

	if config.Console != nil {
		writer = zerolog.MultiLevelWriter(writer, zerolog.ConsoleWriter{
			Out:        config.Console,
			TimeFormat: time.Kitchen,
		})
	}

	logger := zerolog.New(writer).With().
		Timestamp().
		Str("run_id", config.RunID).
		Logger().
		Level(config.Level)

	return logger.WithContext(ctx), nil
}

// ParseLevel converts a config string into a level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	if level == "" {
		return InfoLevel
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return InfoLevel
	}
	return parsed
}

// Get retrieves the logger from the provided context
// Returns the logger associated with the context, or a disabled logger if none exists
func Get(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

// Package logging provides structured logging for caremap components.
//
// All packages log through zerolog. A logger is constructed once at startup
// from the logging section of the config file and handed to components
// explicitly or carried on a context. Console output is human-readable when
// stderr is a terminal, JSON otherwise.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	// Unparseable values fall back to info.
	Level string

	// Format selects the output format: "console", "json", or "auto"
	// (console on a terminal, JSON otherwise).
	Format string

	// File, when non-empty, appends logs to the given path in addition
	// to stderr.
	File string
}

// New builds a logger from cfg. Construction never fails: a bad level
// defaults to info and an unopenable log file degrades to stderr-only
// output with a warning on the returned logger.
func New(cfg Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	var fileErr error
	writers := []io.Writer{consoleWriter(cfg.Format)}
	if cfg.File != "" {
		f, openErr := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if openErr != nil {
			fileErr = openErr
		} else {
			writers = append(writers, f)
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	if fileErr != nil {
		logger.Warn().Err(fileErr).Str("path", cfg.File).Msg("could not open log file, logging to stderr only")
	}

	return logger
}

// consoleWriter returns the base writer for the requested format.
func consoleWriter(format string) io.Writer {
	useConsole := format == "console" ||
		(format != "json" && term.IsTerminal(int(os.Stderr.Fd())))
	if useConsole {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}
	return os.Stderr
}

// ComponentLogger returns a child logger tagged with the component name.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

type contextKey struct{}

// WithContext returns a copy of ctx carrying the logger.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored on ctx, or a disabled logger when
// none is present.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

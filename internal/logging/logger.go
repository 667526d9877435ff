// Package logging configures the zerolog loggers used across perfpilot.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Config contains logger configuration.
type Config struct {
	// Level sets the logging level (debug, info, warn, error).
	Level string
	// Pretty enables human-readable console output. When nil, pretty output
	// is enabled iff the output writer is a terminal.
	Pretty *bool
	// Output sets the output writer (defaults to os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{Level: "info"}
}

// New creates a zerolog logger with the given configuration.
func New(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	pretty := false
	if cfg.Pretty != nil {
		pretty = *cfg.Pretty
	} else if f, ok := output.(*os.File); ok {
		pretty = term.IsTerminal(int(f.Fd()))
	}

	if pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewWithComponent creates a logger with a component field for structured logging.
func NewWithComponent(cfg Config, component string) zerolog.Logger {
	return New(cfg).With().Str("component", component).Logger()
}

// Package logging provides structured logging setup for the backend.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls how the root logger is constructed.
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // human-readable console output instead of JSON
}

// New builds a root zerolog.Logger from Config. Callers derive component
// loggers from it with log.With().Str("component", "x").Logger(), the
// convention used throughout this codebase.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var writer = os.Stdout
	if cfg.Pretty {
		console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
		return zerolog.New(console).With().Timestamp().Logger()
	}

	return zerolog.New(writer).With().Timestamp().Logger()
}

// Package logging builds the zerolog loggers used by the CLI and the API server.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger writing to w. Verbose enables debug level.
func New(w io.Writer, verbose bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).Level(level(verbose)).With().Timestamp().Logger()
}

// NewConsole returns a human-readable logger for interactive CLI use.
func NewConsole(w io.Writer, verbose bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(cw).Level(level(verbose)).With().Timestamp().Logger()
}

// Nop discards everything. Useful in tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func level(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

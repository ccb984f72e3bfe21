// Package logging builds the process logger.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger at the given level. Format "console"
// produces human-readable output for local runs; anything else emits
// JSON lines.
func New(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var out = os.Stderr
	logger := zerolog.New(out)
	if format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	return logger.Level(lvl).With().Timestamp().Logger()
}

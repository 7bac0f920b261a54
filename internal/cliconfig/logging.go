package cliconfig

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger().
	Level(zerolog.InfoLevel)

// Logger returns the CLI logger.
func Logger() zerolog.Logger {
	return logger
}

// SetVerbose switches the CLI logger to debug level.
func SetVerbose(verbose bool) {
	if verbose {
		logger = logger.Level(zerolog.DebugLevel)
		return
	}
	logger = logger.Level(zerolog.InfoLevel)
}

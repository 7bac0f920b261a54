package log

import (
	"time"

	"github.com/rs/zerolog"

	logAdapter "github.com/bft-labs/mangaship/internal/adapters/log"
	"github.com/bft-labs/mangaship/internal/ports"
)

// Logger provides structured logging with levelled methods.
type Logger = ports.Logger

// Field is a key-value pair attached to a log message.
type Field = ports.Field

// NewZerolog returns a Logger writing to logger.
func NewZerolog(logger zerolog.Logger) Logger {
	return logAdapter.NewZerologAdapterWithLogger(logger)
}

// NewNoop returns a Logger that discards everything.
func NewNoop() Logger {
	return logAdapter.NewNoopLogger()
}

// Field constructors.
func String(key, value string) Field                 { return ports.String(key, value) }
func Int(key string, value int) Field                { return ports.Int(key, value) }
func Bool(key string, value bool) Field              { return ports.Bool(key, value) }
func Duration(key string, value time.Duration) Field { return ports.Duration(key, value) }
func Err(err error) Field                            { return ports.Err(err) }

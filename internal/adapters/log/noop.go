package log

import "github.com/bft-labs/mangaship/internal/ports"

// NoopLogger is the logger a mangaship.Client uses when WithLogger is not
// given. Chapter, page and batch events still reach the EventHandler; only
// the log lines are dropped.
type NoopLogger struct{}

// NewNoopLogger returns a logger that drops every line.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(string, ...ports.Field) {}
func (NoopLogger) Info(string, ...ports.Field)  {}
func (NoopLogger) Warn(string, ...ports.Field)  {}
func (NoopLogger) Error(string, ...ports.Field) {}

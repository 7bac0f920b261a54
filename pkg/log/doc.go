// Package log exposes the structured logger used by mangaship so programs
// embedding the client can plug in zerolog or their own implementation.
//
// # Usage
//
// Wrap an existing zerolog logger:
//
//	client, err := mangaship.New(cfg,
//	    mangaship.WithLogger(log.NewZerolog(zerolog.New(os.Stderr))),
//	)
//
// # Custom Loggers
//
// Implement the Logger interface to integrate with your existing
// logging infrastructure:
//
//	func (l *MyLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Info(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Warn(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Error(msg string, fields ...log.Field) { ... }
package log

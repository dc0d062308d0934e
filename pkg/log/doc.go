// Package log provides the logging abstraction used by the notification
// channel, its plugins and the attachnotify CLI.
//
// The channel reports every connect, read and write failure through a
// Logger, so embedding applications decide where those reports end up.
//
// # Usage
//
// Use the zerolog console adapter:
//
//	logger := log.NewZerologAdapter(log.LevelInfo)
//
// Or the no-op logger, which is also the channel's default:
//
//	logger := log.NewNoopLogger()
//
// # Custom Loggers
//
// Implement the Logger interface to integrate with existing logging
// infrastructure:
//
//	type MyLogger struct { ... }
//
//	func (l *MyLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Info(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Warn(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Error(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) With(fields ...log.Field) log.Logger { ... }
package log

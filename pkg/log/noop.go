package log

// NoopLogger implements Logger by discarding all log messages. It is the
// default for a notify.Channel and its plugins when no logger is configured,
// and is handy in tests.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

// Debug discards the message.
func (NoopLogger) Debug(msg string, fields ...Field) {}

// Info discards the message.
func (NoopLogger) Info(msg string, fields ...Field) {}

// Warn discards the message.
func (NoopLogger) Warn(msg string, fields ...Field) {}

// Error discards the message.
func (NoopLogger) Error(msg string, fields ...Field) {}

// With drops the bound fields, so the channel's per-instance
// logger.With(channel=<id>) stays a no-op.
func (n NoopLogger) With(fields ...Field) Logger { return n }

package domain

import "errors"

// Domain errors represent failure conditions of the notification channel.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrConnect is returned when the engine endpoint cannot be reached.
	ErrConnect = errors.New("attachnotify: connect failed")

	// ErrWrite is returned when a queued message cannot be written to the socket.
	ErrWrite = errors.New("attachnotify: write failed")

	// ErrRead is returned when reading or decoding an inbound frame fails.
	ErrRead = errors.New("attachnotify: read failed")

	// ErrPeerClosed is returned when the engine closes the connection.
	ErrPeerClosed = errors.New("attachnotify: connection closed by peer")

	// ErrReconnectCeiling is returned when a connect attempt is suppressed
	// because the attempt counter reached the configured ceiling.
	ErrReconnectCeiling = errors.New("attachnotify: reconnect max count reached")

	// ErrNotConnected is returned by operations that need a live socket.
	ErrNotConnected = errors.New("attachnotify: not connected")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("attachnotify: invalid configuration")

	// ErrUnknownCommand is returned when a command name cannot be parsed.
	ErrUnknownCommand = errors.New("attachnotify: unknown command")
)

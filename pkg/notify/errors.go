package notify

import (
	"github.com/monodebug/attachnotify/internal/domain"
	"github.com/monodebug/attachnotify/pkg/lifecycle"
)

// Errors returned by a Channel. Check them with errors.Is.
var (
	ErrConnect          = domain.ErrConnect
	ErrWrite            = domain.ErrWrite
	ErrRead             = domain.ErrRead
	ErrPeerClosed       = domain.ErrPeerClosed
	ErrReconnectCeiling = domain.ErrReconnectCeiling
	ErrNotConnected     = domain.ErrNotConnected
	ErrInvalidConfig    = domain.ErrInvalidConfig

	ErrAlreadyRunning  = lifecycle.ErrAlreadyRunning
	ErrNotRunning      = lifecycle.ErrNotRunning
	ErrStopped         = lifecycle.ErrStopped
	ErrShutdownTimeout = lifecycle.ErrShutdownTimeout
)

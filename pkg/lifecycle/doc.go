// Package lifecycle provides the state machine that governs a notification
// channel's background worker.
//
// # Usage
//
//	manager := lifecycle.NewManager(logger, eventEmitter)
//
//	if !manager.CanStart() {
//	    return lifecycle.ErrAlreadyRunning
//	}
//	if err := manager.TransitionTo(lifecycle.StateRunning, "Start() called"); err != nil {
//	    return err
//	}
//
//	manager.AddWorker()
//	go func() {
//	    defer manager.WorkerDone()
//	    // ... worker loop ...
//	}()
//
//	// Graceful shutdown
//	_ = manager.TransitionTo(lifecycle.StateStopping, "Stop() called")
//	err := manager.WaitWithTimeout(lifecycle.ShutdownTimeout)
//	_ = manager.TransitionTo(lifecycle.StateStopped, "worker exited")
//
// # State Machine
//
// Valid state transitions:
//   - Uninitialized -> Running
//   - Uninitialized -> Stopped (stopped before it was ever started)
//   - Running -> Stopping
//   - Stopping -> Stopped
//
// Stopped is terminal. Reconnecting after shutdown requires a new channel.
package lifecycle

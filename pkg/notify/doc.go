// Package notify provides a self-healing TCP channel that sends Attach and
// Detach notifications to a running engine and decodes the engine's replies.
//
// # Basic Usage
//
//	cfg := notify.DefaultConfig()
//	cfg.Endpoint = notify.Endpoint{Host: "10.0.0.5", Port: 9001}
//
//	ch, err := notify.New(cfg, notify.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := ch.Start(ctx); err != nil {
//	    return err
//	}
//	defer ch.Stop()
//
//	_ = ch.SendAttach(true)
//
// # Wire Format
//
// Every message is a 4-byte length prefix followed by the payload. The prefix
// counts payload bytes only and is little-endian unless Config.ByteOrder says
// otherwise. Command text is "cmd:Attach;value:True" style, UTF-8 by default.
//
// # Worker
//
// A single goroutine owns the socket. Each cycle it connects if needed,
// writes every queued message in FIFO order, then reads only the bytes the
// transport already holds so a partial frame never blocks it. Between cycles
// it sleeps until a message is enqueued or Config.PollInterval elapses.
//
// # Reconnects
//
// Failed connects increment a counter. Once it reaches
// Config.MaxReconnectAttempts the channel stops dialing and reports
// [ErrReconnectCeiling] through the logger and [EventHandler]. Enqueueing a
// message resets the counter. There is no backoff between attempts.
//
// # Queue Retention
//
// With [RetainQueue] (the default) messages that could not be written stay
// queued across reconnects. With [DropQueue] every teardown empties the queue.
//
// # Lifecycle States
//
// A Channel moves from [StateUninitialized] to [StateRunning] on Start and to
// [StateStopping] then [StateStopped] on Stop. Stopped is terminal.
package notify

package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/monodebug/attachnotify/internal/domain"
	"github.com/monodebug/attachnotify/pkg/frame"
	"github.com/monodebug/attachnotify/pkg/lifecycle"
	"github.com/monodebug/attachnotify/pkg/log"
)

// Channel is a self-healing TCP notification channel to an engine process.
// Producers enqueue messages from any goroutine; a single worker goroutine
// owns the socket and, on every wake, connects if needed, drains the queue
// and reads whatever inbound bytes are available.
//
// Use New() to create an instance, then Start() to launch the worker.
type Channel struct {
	id        string
	cfg       Config
	logger    log.Logger
	events    EventHandler
	lifecycle *lifecycle.DefaultManager
	codec     TextCodec
	conn      *connection
	queue     queue
	wake      chan struct{}
	metrics   *channelMetrics
	plugins   []Plugin

	mu     sync.Mutex
	cancel context.CancelFunc

	// closing is set by Stop before the worker is cancelled. Enqueue checks
	// it under the read lock so no message is accepted after that point.
	enqueueMu sync.RWMutex
	closing   bool
}

// New creates a Channel with the given configuration.
// The instance is created in StateUninitialized; call Start() to connect.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Channel, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	order, err := cfg.byteOrder()
	if err != nil {
		return nil, err
	}
	codec, err := NewTextCodec(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	o := defaultOptions(cfg)
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}

	c := &Channel{
		id:      o.id,
		cfg:     cfg,
		logger:  o.logger.With(log.String("channel", o.id)),
		events:  o.eventHandler,
		codec:   codec,
		conn:    newConnection(cfg, o.dialer, order),
		wake:    make(chan struct{}, 1),
		plugins: o.plugins,
	}
	c.lifecycle = lifecycle.NewManager(c.logger, lifecycleEmitter{id: c.id, handler: c.events})
	c.metrics = newChannelMetrics(c.id, c)
	return c, nil
}

// Start launches the worker goroutine and returns immediately.
// ctx is handed to plugins and carries values into the worker, but its
// cancellation does not stop the worker: only Stop does.
func (c *Channel) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lifecycle.CanStart() {
		if s := c.lifecycle.State(); s == StateStopping || s == StateStopped {
			return ErrStopped
		}
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	pluginCfg := PluginConfig{
		ChannelID: c.id,
		Endpoint:  c.Endpoint(),
		Logger:    c.logger,
		Channel:   c,
	}
	for i, p := range c.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			c.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			c.shutdownPlugins(c.plugins[:i])
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		c.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	if err := c.lifecycle.TransitionTo(StateRunning, "Start() called"); err != nil {
		cancel()
		c.shutdownPlugins(c.plugins)
		return err
	}
	c.cancel = cancel

	c.lifecycle.AddWorker()
	go func() {
		defer c.lifecycle.WorkerDone()
		c.run(runCtx)
	}()

	return nil
}

// Stop shuts the worker down and closes the connection. Stopped is terminal:
// a stopped Channel cannot be restarted.
// Returns nil on graceful shutdown, ErrShutdownTimeout if the worker did not
// exit within Config.ShutdownTimeout.
func (c *Channel) Stop() error {
	c.mu.Lock()

	if !c.lifecycle.CanStop() {
		c.mu.Unlock()
		return ErrNotRunning
	}

	c.enqueueMu.Lock()
	c.closing = true
	c.enqueueMu.Unlock()

	if c.lifecycle.State() == StateUninitialized {
		err := c.lifecycle.TransitionTo(StateStopped, "Stop() before Start()")
		c.mu.Unlock()
		return err
	}

	if err := c.lifecycle.TransitionTo(StateStopping, "Stop() called"); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	err := c.lifecycle.WaitWithTimeout(c.cfg.ShutdownTimeout)

	c.shutdownPlugins(c.plugins)

	reason := "graceful shutdown"
	if err != nil {
		reason = "shutdown timeout"
	}
	_ = c.lifecycle.TransitionTo(StateStopped, reason)
	return err
}

func (c *Channel) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			c.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			continue
		}
		c.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
	}
}

// Enqueue appends a copy of payload to the outbound queue and wakes the
// worker. It also resets the reconnect counter, so a channel that gave up
// after too many failed connects tries again. Safe for concurrent use.
func (c *Channel) Enqueue(payload []byte) error {
	c.enqueueMu.RLock()
	if c.closing {
		c.enqueueMu.RUnlock()
		return ErrStopped
	}
	c.queue.push(domain.NewMessage(payload), c.conn.resetAttempts)
	c.enqueueMu.RUnlock()

	c.signal()
	return nil
}

// SendAttach enqueues "cmd:Attach;value:<startPlay>".
func (c *Channel) SendAttach(startPlay bool) error {
	return c.Notify(domain.Attach(startPlay))
}

// SendDetach enqueues "cmd:Detach;value:<stopPlay>".
func (c *Channel) SendDetach(stopPlay bool) error {
	return c.Notify(domain.Detach(stopPlay))
}

// Notify encodes n with the configured text encoding and enqueues it.
func (c *Channel) Notify(n domain.Notification) error {
	payload, err := c.codec.Encode(n.String())
	if err != nil {
		return fmt.Errorf("encode %s: %w", n.Name, err)
	}
	return c.Enqueue(payload)
}

// Reconfigure points the channel at a new endpoint. A live connection to the
// old endpoint is closed on the next worker cycle and the reconnect counter
// starts over.
func (c *Channel) Reconfigure(ep Endpoint) error {
	if err := ep.Validate(); err != nil {
		return err
	}
	if !c.conn.setEndpoint(ep) {
		return nil
	}
	c.conn.resetAttempts()
	c.logger.Info("endpoint reconfigured", log.String("endpoint", ep.String()))
	c.signal()
	return nil
}

// ID returns the channel identifier used in logs, events and metrics.
func (c *Channel) ID() string { return c.id }

// Endpoint returns the endpoint the next connect will dial.
func (c *Channel) Endpoint() Endpoint { return c.conn.currentEndpoint() }

// State returns the current lifecycle state.
func (c *Channel) State() State { return c.lifecycle.State() }

// Pending returns the number of queued, unsent messages.
func (c *Channel) Pending() int { return c.queue.len() }

// ReconnectAttempts returns the number of consecutive failed connects.
func (c *Channel) ReconnectAttempts() int { return int(c.conn.attempts.Load()) }

// Connected reports whether a socket to the engine is currently open.
func (c *Channel) Connected() bool { return c.conn.connected() }

// WritePrometheus writes the channel's metrics in Prometheus text format.
func (c *Channel) WritePrometheus(w io.Writer) { c.metrics.writePrometheus(w) }

func (c *Channel) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// run is the worker loop. Each cycle connects, drains and reads in that
// order, then waits for an enqueue, the idle timer or cancellation.
func (c *Channel) run(ctx context.Context) {
	c.logger.Info("worker started", log.String("endpoint", c.Endpoint().String()))
	defer func() {
		c.disconnect(nil)
		c.logger.Info("worker stopped")
	}()

	for ctx.Err() == nil {
		wakeOnly := c.cycle(ctx)
		if !c.wait(ctx, wakeOnly) {
			return
		}
	}
}

// wait blocks until the next cycle is due. With wakeOnly set the idle timer
// is not armed: only an enqueue, a reconfigure or cancellation resumes work.
func (c *Channel) wait(ctx context.Context, wakeOnly bool) bool {
	if wakeOnly {
		select {
		case <-ctx.Done():
			return false
		case <-c.wake:
			return true
		}
	}

	timer := time.NewTimer(c.cfg.PollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-c.wake:
		return true
	case <-timer.C:
		return true
	}
}

// cycle runs one connect, drain, read pass. It returns true when connecting
// was suppressed by the reconnect ceiling.
func (c *Channel) cycle(ctx context.Context) bool {
	if c.conn.stale() {
		c.logger.Info("endpoint changed, dropping connection",
			log.String("endpoint", c.Endpoint().String()))
		c.disconnect(nil)
	}

	if err := c.connect(ctx); err != nil {
		return errors.Is(err, domain.ErrReconnectCeiling)
	}

	if err := c.drain(); err != nil {
		c.disconnect(err)
		return false
	}

	c.read()
	return false
}

func (c *Channel) connect(ctx context.Context) error {
	if c.conn.connected() {
		return nil
	}

	ep := c.Endpoint()
	start := time.Now()
	err := c.conn.connect(ctx)
	switch {
	case err == nil:
		c.metrics.connects.Inc()
		c.logger.Info("connected", log.String("endpoint", ep.String()))
		c.events.OnConnect(ConnectEvent{
			ChannelID: c.id,
			Endpoint:  ep,
			Duration:  time.Since(start),
		})
	case errors.Is(err, domain.ErrReconnectCeiling):
		c.metrics.ceilingHits.Inc()
		attempts := c.ReconnectAttempts()
		pending := c.Pending()
		c.logger.Warn("reconnect max count reached",
			log.String("endpoint", ep.String()),
			log.Int("attempts", attempts),
			log.Int("pending", pending))
		c.events.OnReconnectCeiling(ReconnectCeilingEvent{
			ChannelID: c.id,
			Endpoint:  ep,
			Attempts:  attempts,
			Pending:   pending,
		})
	case ctx.Err() != nil:
	default:
		c.metrics.connectErrors.Inc()
		attempts := c.ReconnectAttempts()
		c.logger.Error("connect failed",
			log.String("endpoint", ep.String()),
			log.Int("attempt", attempts),
			log.Err(err))
		c.events.OnConnectError(ConnectErrorEvent{
			ChannelID: c.id,
			Endpoint:  ep,
			Error:     err,
			Attempts:  attempts,
		})
	}
	return err
}

type sendRecord struct {
	bytes    int
	duration time.Duration
}

// drain writes queued messages in order until the queue is empty or a write
// fails. Events are emitted after the queue lock is released.
func (c *Channel) drain() error {
	var records []sendRecord
	_, err := c.queue.drain(func(m domain.Message) error {
		start := time.Now()
		n, err := c.conn.write(m.Payload())
		if err != nil {
			return err
		}
		c.conn.resetAttempts()
		records = append(records, sendRecord{bytes: n, duration: time.Since(start)})
		return nil
	})

	for _, r := range records {
		c.metrics.sent.Inc()
		c.metrics.sentBytes.Add(r.bytes)
		c.logger.Debug("message sent", log.Int("bytes", r.bytes))
		c.events.OnSendSuccess(SendSuccessEvent{
			ChannelID: c.id,
			Bytes:     r.bytes,
			Duration:  r.duration,
		})
	}

	if err != nil {
		c.metrics.sendErrors.Inc()
		pending := c.Pending()
		c.logger.Error("send failed", log.Int("pending", pending), log.Err(err))
		c.events.OnSendError(SendErrorEvent{
			ChannelID: c.id,
			Error:     err,
			Pending:   pending,
		})
	}
	return err
}

func (c *Channel) read() {
	frames, err := c.conn.readAvailable()
	for _, payload := range frames {
		c.deliver(payload)
	}
	if err != nil {
		c.disconnect(err)
	}
}

func (c *Channel) deliver(payload []byte) {
	text, err := c.codec.Decode(payload)
	if err != nil {
		c.logger.Warn("undecodable frame", log.Int("bytes", len(payload)), log.Err(err))
	}
	c.metrics.received.Inc()
	c.metrics.receivedBytes.Add(frame.HeaderSize + len(payload))
	c.logger.Info("frame received", log.String("text", text), log.Int("bytes", len(payload)))
	c.events.OnReceive(ReceiveEvent{
		ChannelID: c.id,
		Payload:   payload,
		Text:      text,
	})
}

// disconnect tears the socket down. Under DropQueue it also discards every
// queued message.
func (c *Channel) disconnect(cause error) {
	ep := c.conn.dialed
	if !c.conn.teardown() {
		return
	}

	dropped := 0
	if c.cfg.QueueRetention == DropQueue {
		dropped = c.queue.clear()
		c.metrics.dropped.Add(dropped)
	}
	c.metrics.disconnects.Inc()

	if cause != nil {
		c.logger.Warn("connection torn down",
			log.String("endpoint", ep.String()),
			log.Int("dropped", dropped),
			log.Err(cause))
	} else {
		c.logger.Info("disconnected", log.String("endpoint", ep.String()))
	}
	c.events.OnDisconnect(DisconnectEvent{
		ChannelID: c.id,
		Endpoint:  ep,
		Error:     cause,
		Dropped:   dropped,
	})
}

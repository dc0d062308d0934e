package notify

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/monodebug/attachnotify/internal/domain"
	"github.com/monodebug/attachnotify/pkg/frame"
)

// Dialer opens transport connections. *net.Dialer satisfies this interface.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// connection owns the single socket to the engine. Only the worker
// goroutine touches conn, rd, wr and dec; the endpoint and the attempt
// counter are shared with producers.
type connection struct {
	dialer  Dialer
	timeout time.Duration
	ceiling int64

	mu       sync.Mutex
	endpoint Endpoint

	attempts atomic.Int64
	up       atomic.Bool

	conn   net.Conn
	dialed Endpoint
	rd     *bufio.Reader
	wr     *frameWriter
	dec    *frame.Decoder
}

func newConnection(cfg Config, dialer Dialer, order binary.ByteOrder) *connection {
	return &connection{
		dialer:   dialer,
		timeout:  cfg.Timeout,
		ceiling:  int64(cfg.MaxReconnectAttempts),
		endpoint: cfg.Endpoint,
		wr:       newFrameWriter(order),
		dec:      frame.NewDecoder(order, cfg.MaxFrameSize),
	}
}

func (c *connection) currentEndpoint() Endpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

// setEndpoint replaces the target. It reports whether it changed.
func (c *connection) setEndpoint(ep Endpoint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.endpoint == ep {
		return false
	}
	c.endpoint = ep
	return true
}

func (c *connection) connected() bool { return c.up.Load() }

// stale reports whether the live socket points at an outdated endpoint.
func (c *connection) stale() bool {
	return c.conn != nil && c.dialed != c.currentEndpoint()
}

func (c *connection) resetAttempts() { c.attempts.Store(0) }

func (c *connection) atCeiling() bool { return c.attempts.Load() >= c.ceiling }

// connect dials the endpoint unless a socket is already live or the
// attempt counter has reached the ceiling.
func (c *connection) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	if c.atCeiling() {
		return domain.ErrReconnectCeiling
	}

	ep := c.currentEndpoint()
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	conn, err := c.dialer.DialContext(dialCtx, "tcp", ep.Address())
	cancel()
	if err != nil {
		c.attempts.Add(1)
		return fmt.Errorf("%w: dial %s: %w", domain.ErrConnect, ep, err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	c.conn = conn
	c.dialed = ep
	c.rd = bufio.NewReader(conn)
	c.wr.reset(conn)
	c.dec.Reset()
	c.resetAttempts()
	c.up.Store(true)
	return nil
}

// teardown closes the socket and discards any partially read frame.
// It reports whether a socket was open.
func (c *connection) teardown() bool {
	if c.conn == nil {
		return false
	}
	_ = c.conn.Close()
	c.conn = nil
	c.rd = nil
	c.wr.reset(nil)
	c.dec.Reset()
	c.up.Store(false)
	return true
}

package notify

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/monodebug/attachnotify/internal/domain"
)

// peekWait bounds the fallback availability probe.
const peekWait = time.Millisecond

// readAvailable reads whatever the transport already holds, never more, and
// returns every frame those bytes complete. Partial frames stay in the
// decoder for the next cycle.
func (c *connection) readAvailable() ([][]byte, error) {
	if c.conn == nil {
		return nil, domain.ErrNotConnected
	}

	avail, err := c.available()
	if err != nil {
		return nil, c.readError(err)
	}

	var frames [][]byte
	for avail > 0 {
		want := min(avail, c.dec.Need())
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return frames, c.readError(err)
		}
		n, err := io.ReadFull(c.rd, c.dec.Next()[:want])
		if n > 0 {
			payload, done, aerr := c.dec.Advance(n)
			if aerr != nil {
				return frames, fmt.Errorf("%w: %w", domain.ErrRead, aerr)
			}
			if done {
				frames = append(frames, payload)
			}
		}
		if err != nil {
			return frames, c.readError(err)
		}
		avail -= n
	}
	return frames, nil
}

// available returns how many bytes can be read without blocking.
// Peer close is reported as io.EOF.
func (c *connection) available() (int, error) {
	if n := c.rd.Buffered(); n > 0 {
		return n, nil
	}
	if n, ok, err := socketPending(c.conn); ok {
		return n, err
	}
	return c.peekPending()
}

// peekPending probes transports without a pollable descriptor by peeking one
// byte under a very short deadline.
func (c *connection) peekPending() (int, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(peekWait)); err != nil {
		return 0, err
	}
	_, err := c.rd.Peek(1)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return 0, nil
		}
		return 0, err
	}
	return c.rd.Buffered(), nil
}

func (c *connection) readError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", domain.ErrPeerClosed, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrRead, err)
}

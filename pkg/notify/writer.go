package notify

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/monodebug/attachnotify/internal/domain"
	"github.com/monodebug/attachnotify/pkg/frame"
)

// frameWriter writes one framed message per call: the prefix and payload go
// out in a single contiguous buffer followed by a flush.
type frameWriter struct {
	order binary.ByteOrder
	bw    *bufio.Writer
	buf   []byte
}

func newFrameWriter(order binary.ByteOrder) *frameWriter {
	return &frameWriter{order: order}
}

func (w *frameWriter) reset(dst io.Writer) {
	if dst == nil {
		w.bw = nil
		return
	}
	if w.bw == nil {
		w.bw = bufio.NewWriter(dst)
		return
	}
	w.bw.Reset(dst)
}

func (w *frameWriter) write(payload []byte) (int, error) {
	w.buf = frame.Append(w.buf[:0], payload, w.order)
	if _, err := w.bw.Write(w.buf); err != nil {
		return 0, err
	}
	if err := w.bw.Flush(); err != nil {
		return 0, err
	}
	return len(w.buf), nil
}

// write sends one message. Errors are wrapped with domain.ErrWrite and leave
// the socket unusable; the caller tears it down.
func (c *connection) write(payload []byte) (int, error) {
	if c.conn == nil {
		return 0, domain.ErrNotConnected
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, fmt.Errorf("%w: set deadline: %w", domain.ErrWrite, err)
	}
	n, err := c.wr.write(payload)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrWrite, err)
	}
	return n, nil
}

package frame

import (
	"encoding/binary"
	"fmt"
)

// Phase is the state of the frame currently being decoded.
type Phase int

const (
	// AwaitingHeader accumulates the 4-byte length prefix.
	AwaitingHeader Phase = iota
	// AwaitingBody accumulates exactly the announced number of payload bytes.
	AwaitingBody
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case AwaitingHeader:
		return "AwaitingHeader"
	case AwaitingBody:
		return "AwaitingBody"
	default:
		return "Unknown"
	}
}

// Decoder incrementally decodes length-prefixed frames from bytes that may
// arrive in arbitrary chunks. Only one frame is in flight at a time.
//
// The caller asks for Next() bytes, fills them in any number of steps and
// reports progress through Advance. Feed wraps that protocol for callers that
// already hold a chunk in memory.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	order   binary.ByteOrder
	maxSize int

	phase    Phase
	header   [HeaderSize]byte
	body     []byte
	off      int
	expected int
}

// NewDecoder creates a decoder. maxSize <= 0 selects DefaultMaxSize.
func NewDecoder(order binary.ByteOrder, maxSize int) *Decoder {
	if order == nil {
		order = Wire
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Decoder{order: order, maxSize: maxSize}
}

// Phase reports the current decoding phase.
func (d *Decoder) Phase() Phase { return d.phase }

// Expected is the announced payload length of the frame in flight, or zero
// while the header is still incomplete.
func (d *Decoder) Expected() int { return d.expected }

// Need returns how many more bytes complete the current phase.
func (d *Decoder) Need() int {
	if d.phase == AwaitingHeader {
		return HeaderSize - d.off
	}
	return d.expected - d.off
}

// Next returns the slice the next bytes must be written into. Its length
// equals Need().
func (d *Decoder) Next() []byte {
	if d.phase == AwaitingHeader {
		return d.header[d.off:]
	}
	return d.body[d.off:d.expected]
}

// Advance records that n bytes were written into the slice returned by Next.
// When the write completes a frame, the payload is returned with done set.
// A zero-length body completes together with its header.
func (d *Decoder) Advance(n int) (payload []byte, done bool, err error) {
	if n < 0 || n > d.Need() {
		return nil, false, fmt.Errorf("frame: advance %d outside need %d", n, d.Need())
	}
	d.off += n

	if d.phase == AwaitingHeader {
		if d.off < HeaderSize {
			return nil, false, nil
		}
		size := d.order.Uint32(d.header[:])
		if int64(size) > int64(d.maxSize) {
			d.Reset()
			return nil, false, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, d.maxSize)
		}
		d.phase = AwaitingBody
		d.expected = int(size)
		d.off = 0
		d.body = make([]byte, d.expected)
	}

	if d.off < d.expected {
		return nil, false, nil
	}

	payload = d.body
	d.Reset()
	return payload, true, nil
}

// Feed consumes a chunk of stream data and returns every frame it completes.
// Bytes belonging to an unfinished frame are kept for the next call.
func (d *Decoder) Feed(chunk []byte) ([][]byte, error) {
	var frames [][]byte
	for len(chunk) > 0 {
		n := copy(d.Next(), chunk)
		chunk = chunk[n:]
		payload, done, err := d.Advance(n)
		if err != nil {
			return frames, err
		}
		if done {
			frames = append(frames, payload)
		}
	}
	return frames, nil
}

// Reset discards any partial frame and returns to AwaitingHeader.
func (d *Decoder) Reset() {
	d.phase = AwaitingHeader
	d.off = 0
	d.expected = 0
	d.body = nil
}

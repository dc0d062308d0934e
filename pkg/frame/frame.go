package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the size of the length prefix in bytes.
const HeaderSize = 4

// DefaultMaxSize bounds the payload length a Decoder accepts.
const DefaultMaxSize = 1 << 20 // 1 MiB

// ErrFrameTooLarge is returned when a header announces a payload above the
// decoder's limit.
var ErrFrameTooLarge = errors.New("frame: payload exceeds maximum size")

// Wire is the byte order used on the wire unless configured otherwise.
// Engines built against the original tool expect little-endian prefixes.
var Wire binary.ByteOrder = binary.LittleEndian

// ParseByteOrder maps "little"/"big" (and the "le"/"be" short forms) to a
// binary.ByteOrder. An empty string selects Wire.
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch s {
	case "":
		return Wire, nil
	case "little", "le", "little-endian":
		return binary.LittleEndian, nil
	case "big", "be", "big-endian":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("frame: unknown byte order %q", s)
	}
}

// Append encodes payload as one frame and appends it to dst.
// The result is a single contiguous buffer: prefix followed by payload.
func Append(dst []byte, payload []byte, order binary.ByteOrder) []byte {
	var hdr [HeaderSize]byte
	order.PutUint32(hdr[:], uint32(len(payload)))
	dst = append(dst, hdr[:]...)
	return append(dst, payload...)
}

// Encode returns payload framed with a length prefix.
func Encode(payload []byte, order binary.ByteOrder) []byte {
	return Append(make([]byte, 0, HeaderSize+len(payload)), payload, order)
}

// Write frames payload and issues exactly one Write call on w.
func Write(w io.Writer, payload []byte, order binary.ByteOrder) error {
	_, err := w.Write(Encode(payload, order))
	return err
}

// Read reads one complete frame from r, blocking until it has arrived.
// A maxSize of zero disables the size check.
func Read(r io.Reader, order binary.ByteOrder, maxSize int) ([]byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	n := order.Uint32(hdr[:])
	if maxSize > 0 && int64(n) > int64(maxSize) {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, maxSize)
	}
	if n == 0 {
		return []byte{}, nil
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

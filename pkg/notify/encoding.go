package notify

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/monodebug/attachnotify/internal/domain"
)

// Supported command text encodings.
const (
	EncodingUTF8    = "utf-8"
	EncodingUTF16LE = "utf-16le"
)

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingUTF8, "utf8":
		return unicode.UTF8, nil
	case EncodingUTF16LE, "utf16le", "unicode":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", domain.ErrInvalidConfig, name)
	}
}

// TextCodec converts command text to and from payload bytes.
type TextCodec struct {
	enc encoding.Encoding
}

// NewTextCodec returns the codec for an encoding name such as "utf-8" or
// "utf-16le".
func NewTextCodec(name string) (TextCodec, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return TextCodec{}, err
	}
	return TextCodec{enc: enc}, nil
}

// Encode converts s to payload bytes.
func (c TextCodec) Encode(s string) ([]byte, error) {
	return c.enc.NewEncoder().Bytes([]byte(s))
}

// Decode converts payload bytes to text.
func (c TextCodec) Decode(b []byte) (string, error) {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Package frame implements the length-prefixed framing used between the
// attach tool and the engine.
//
// Every message on the wire is
//
//	[4-byte length][length bytes of payload]
//
// where the length counts only the payload. The prefix is written in an
// explicit byte order (little-endian by default) so endpoints of different
// native endianness interoperate.
//
// # Encoding
//
// [Append] and [Encode] build one contiguous buffer per message so a frame can
// be handed to the transport in a single write:
//
//	buf := frame.Encode([]byte("cmd:Attach;value:True"), frame.Wire)
//
// # Decoding
//
// [Read] blocks until a whole frame has arrived and suits servers with a
// goroutine per connection. [Decoder] is the incremental state machine used by
// the channel's worker, which must never block on a partial frame:
//
//	dec := frame.NewDecoder(frame.Wire, 0)
//	frames, err := dec.Feed(chunk)
package frame

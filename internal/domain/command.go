package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Command names understood by the engine.
const (
	CommandAttach = "Attach"
	CommandDetach = "Detach"
)

// Notification is a single command sent to the engine, rendered on the wire
// as "cmd:<Name>;value:<True|False>".
type Notification struct {
	Name  string
	Value bool
}

// Attach returns the notification sent when the debugger attaches.
// startPlay asks the engine to enter play mode.
func Attach(startPlay bool) Notification {
	return Notification{Name: CommandAttach, Value: startPlay}
}

// Detach returns the notification sent when the debugger detaches.
// stopPlay asks the engine to leave play mode.
func Detach(stopPlay bool) Notification {
	return Notification{Name: CommandDetach, Value: stopPlay}
}

// String renders the notification text. The boolean is capitalised because
// the engine parses it with a case-sensitive reader.
func (n Notification) String() string {
	return "cmd:" + n.Name + ";value:" + FormatBool(n.Value)
}

// FormatBool renders b as "True" or "False".
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ParseNotification parses text in the "cmd:<Name>;value:<bool>" form.
// The value is parsed case-insensitively.
func ParseNotification(text string) (Notification, error) {
	var n Notification
	for _, part := range strings.Split(text, ";") {
		key, val, ok := strings.Cut(part, ":")
		if !ok {
			return Notification{}, fmt.Errorf("%w: malformed field %q", ErrUnknownCommand, part)
		}
		switch strings.TrimSpace(key) {
		case "cmd":
			n.Name = strings.TrimSpace(val)
		case "value":
			b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(val)))
			if err != nil {
				return Notification{}, fmt.Errorf("%w: bad value %q", ErrUnknownCommand, val)
			}
			n.Value = b
		}
	}
	if n.Name == "" {
		return Notification{}, fmt.Errorf("%w: missing cmd in %q", ErrUnknownCommand, text)
	}
	return n, nil
}

// Message is an immutable outbound payload waiting in the queue.
type Message struct {
	payload []byte
}

// NewMessage copies payload into a new Message so later changes to the
// caller's slice do not affect what is sent.
func NewMessage(payload []byte) Message {
	p := make([]byte, len(payload))
	copy(p, payload)
	return Message{payload: p}
}

// Payload returns the message bytes. Callers must not modify them.
func (m Message) Payload() []byte { return m.payload }

// Len returns the payload length in bytes.
func (m Message) Len() int { return len(m.payload) }

package notify

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/monodebug/attachnotify/internal/domain"
	"github.com/monodebug/attachnotify/pkg/frame"
	"github.com/monodebug/attachnotify/pkg/lifecycle"
)

// Defaults match what the engine side listens on out of the box.
const (
	DefaultHost                 = "127.0.0.1"
	DefaultPort                 = 9001
	DefaultMaxReconnectAttempts = 3
	DefaultTimeout              = 10 * time.Second
	DefaultPollInterval         = 50 * time.Millisecond
	DefaultShutdownTimeout      = lifecycle.ShutdownTimeout
)

// QueueRetention decides what happens to unsent messages when the
// connection is torn down.
type QueueRetention string

const (
	// RetainQueue keeps queued messages across reconnects until each one is
	// written successfully.
	RetainQueue QueueRetention = "retain"
	// DropQueue clears the queue on every teardown.
	DropQueue QueueRetention = "drop"
)

// ParseQueueRetention maps a config string to a QueueRetention.
// An empty string selects RetainQueue.
func ParseQueueRetention(s string) (QueueRetention, error) {
	switch QueueRetention(strings.ToLower(strings.TrimSpace(s))) {
	case "", RetainQueue:
		return RetainQueue, nil
	case DropQueue:
		return DropQueue, nil
	default:
		return "", fmt.Errorf("%w: unknown queue retention %q", domain.ErrInvalidConfig, s)
	}
}

// Endpoint is the engine's notification listener.
type Endpoint struct {
	Host string
	Port int
}

// Address returns host:port suitable for net.Dial.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// String implements fmt.Stringer.
func (e Endpoint) String() string { return e.Address() }

// Validate checks that the endpoint can be dialed.
func (e Endpoint) Validate() error {
	if e.Host == "" {
		return fmt.Errorf("%w: host is required", domain.ErrInvalidConfig)
	}
	if e.Port <= 0 || e.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrInvalidConfig, e.Port)
	}
	return nil
}

// Config holds the configuration of a notification channel.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// Endpoint is the engine listener to connect to.
	Endpoint Endpoint

	// MaxReconnectAttempts is the reconnect ceiling. After this many
	// consecutive failed connects no further attempt is made until a new
	// message is enqueued.
	// Default: 3
	MaxReconnectAttempts int

	// Timeout bounds every connect, write and read operation.
	// Default: 10 seconds
	Timeout time.Duration

	// PollInterval is how long the worker idles between cycles when nothing
	// wakes it.
	// Default: 50 milliseconds
	PollInterval time.Duration

	// MaxFrameSize rejects inbound frames announcing a larger payload.
	// Default: 1 MiB
	MaxFrameSize int

	// ByteOrder of the length prefix: "little" or "big".
	// Default: little
	ByteOrder string

	// Encoding of command text: "utf-8" or "utf-16le".
	// Default: utf-8
	Encoding string

	// QueueRetention selects retain or drop on teardown.
	// Default: retain
	QueueRetention QueueRetention

	// ShutdownTimeout bounds how long Stop waits for the worker.
	// Default: 15 seconds
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	c := Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	if c.Endpoint.Host == "" {
		c.Endpoint.Host = DefaultHost
	}
	if c.Endpoint.Port == 0 {
		c.Endpoint.Port = DefaultPort
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxFrameSize == 0 {
		c.MaxFrameSize = frame.DefaultMaxSize
	}
	if c.ByteOrder == "" {
		c.ByteOrder = "little"
	}
	if c.Encoding == "" {
		c.Encoding = EncodingUTF8
	}
	if c.QueueRetention == "" {
		c.QueueRetention = RetainQueue
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Endpoint.Validate(); err != nil {
		return err
	}
	if c.MaxReconnectAttempts <= 0 {
		return fmt.Errorf("%w: max reconnect attempts must be positive", domain.ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", domain.ErrInvalidConfig)
	}
	if c.MaxFrameSize <= 0 {
		return fmt.Errorf("%w: max frame size must be positive", domain.ErrInvalidConfig)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", domain.ErrInvalidConfig)
	}
	if _, err := c.byteOrder(); err != nil {
		return err
	}
	if _, err := lookupEncoding(c.Encoding); err != nil {
		return err
	}
	if _, err := ParseQueueRetention(string(c.QueueRetention)); err != nil {
		return err
	}
	return nil
}

func (c *Config) byteOrder() (binary.ByteOrder, error) {
	order, err := frame.ParseByteOrder(strings.ToLower(c.ByteOrder))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return order, nil
}

package notify

import (
	"net"

	"github.com/monodebug/attachnotify/pkg/log"
)

// Option configures optional behavior of a Channel.
type Option func(*options)

// options holds the optional configuration for a Channel.
type options struct {
	logger       log.Logger
	eventHandler EventHandler
	dialer       Dialer
	plugins      []Plugin
	id           string
}

// defaultOptions returns options with sensible defaults.
func defaultOptions(cfg Config) options {
	return options{
		logger:       log.NewNoopLogger(),
		eventHandler: BaseEventHandler{},
		dialer:       &net.Dialer{Timeout: cfg.Timeout},
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventHandler sets a handler for channel events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		if handler != nil {
			o.eventHandler = handler
		}
	}
}

// WithDialer replaces the TCP dialer, for tests or custom transports such as
// an SSH tunnel.
func WithDialer(dialer Dialer) Option {
	return func(o *options) {
		if dialer != nil {
			o.dialer = dialer
		}
	}
}

// WithPlugin registers a plugin to be initialized when the Channel starts.
// Plugins are initialized in registration order and shut down in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithID sets the channel ID used in logs, events and metric labels.
// If not provided, a random UUID is used.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

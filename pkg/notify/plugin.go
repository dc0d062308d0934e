package notify

import (
	"context"

	"github.com/monodebug/attachnotify/pkg/log"
)

// Plugin extends a Channel with optional behavior that runs alongside the
// worker, such as watching a config file.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize is called from Start. A returned error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called from Stop, in reverse registration order.
	Shutdown(ctx context.Context) error
}

// Reconfigurer is the part of a Channel that plugins may drive.
type Reconfigurer interface {
	Reconfigure(Endpoint) error
	Endpoint() Endpoint
}

// PluginConfig is handed to plugins on Initialize.
type PluginConfig struct {
	ChannelID string
	Endpoint  Endpoint
	Logger    log.Logger
	Channel   Reconfigurer
}

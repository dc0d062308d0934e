// Package attachnotify tells a running game engine that a script debugger
// attached or detached, over a self-healing length-prefixed TCP channel.
//
// Example usage:
//
//	cfg := attachnotify.DefaultConfig()
//	cfg.Endpoint.Port = 9001
//	ch, err := attachnotify.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := ch.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer ch.Stop()
//
//	_ = ch.SendAttach(true)
//
// The full API, including event handlers and plugins, lives in pkg/notify.
package attachnotify

import (
	"context"

	"github.com/monodebug/attachnotify/pkg/notify"
)

// Config holds the configuration for a notification channel.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = notify.Config

// Endpoint is the engine's host and port.
type Endpoint = notify.Endpoint

// Channel is a running notification channel.
type Channel = notify.Channel

// Option configures a Channel.
type Option = notify.Option

// DefaultConfig returns a Config pointing at the engine's default endpoint.
func DefaultConfig() Config {
	return notify.DefaultConfig()
}

// New creates a Channel without starting it.
func New(cfg Config, opts ...Option) (*Channel, error) {
	return notify.New(cfg, opts...)
}

// Run starts a Channel and blocks until ctx is cancelled, then stops it.
// ready, when non-nil, receives the started Channel so the caller can send on it.
func Run(ctx context.Context, cfg Config, ready func(*Channel), opts ...Option) error {
	ch, err := notify.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := ch.Start(ctx); err != nil {
		return err
	}
	if ready != nil {
		ready(ch)
	}
	<-ctx.Done()
	return ch.Stop()
}

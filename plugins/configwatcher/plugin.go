// Package configwatcher provides config file monitoring for a notification
// channel. When enabled, it watches the config file and points the channel at
// the new engine endpoint whenever the file changes.
package configwatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/monodebug/attachnotify/pkg/log"
	"github.com/monodebug/attachnotify/pkg/notify"
)

// Loader reads the engine endpoint from the config file at path.
type Loader func(path string) (notify.Endpoint, error)

// Plugin implements config watching functionality.
// It monitors one config file and calls Reconfigure on the channel when the
// endpoint in it changes.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	path          string
	debounceDelay time.Duration
	load          Loader

	// Runtime state
	channel  notify.Reconfigurer
	logger   log.Logger
	cancel   context.CancelFunc
	stopped  bool
	wg       sync.WaitGroup
	debounce *time.Timer
	reloads  int
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path is the config file to watch.
	Path string

	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// Load parses the endpoint out of the file.
	// Default: reads top-level "host" and "port" keys from TOML.
	Load Loader
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(path string) Config {
	return Config{
		Path:          path,
		DebounceDelay: 100 * time.Millisecond,
		Load:          LoadTOMLEndpoint,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	if cfg.Load == nil {
		cfg.Load = LoadTOMLEndpoint
	}

	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
		load:          cfg.Load,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize sets up the plugin and starts the config watcher.
func (p *Plugin) Initialize(ctx context.Context, cfg notify.PluginConfig) error {
	p.mu.Lock()
	p.channel = cfg.Channel
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	p.mu.Unlock()

	if p.path == "" || p.channel == nil {
		p.logger.Warn("config watcher disabled: no config file or channel")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(p.path), err)
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		watcher.Close()
		return nil
	}
	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	p.mu.Unlock()

	p.logger.Info("config watcher plugin initialized", log.String("path", p.path))
	return nil
}

// Shutdown stops the config watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	return nil
}

// Reloads returns how many times the endpoint was reloaded from the file.
func (p *Plugin) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

// watchLoop watches for config file changes.
func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.reload()
	})
}

func (p *Plugin) reload() {
	ep, err := p.load(p.path)
	if err != nil {
		p.logger.Error("config reload failed", log.String("path", p.path), log.Err(err))
		return
	}
	if ep == p.channel.Endpoint() {
		p.logger.Debug("config changed, endpoint unchanged", log.String("endpoint", ep.String()))
		return
	}
	if err := p.channel.Reconfigure(ep); err != nil {
		p.logger.Error("config reload rejected", log.String("endpoint", ep.String()), log.Err(err))
		return
	}

	p.mu.Lock()
	p.reloads++
	p.mu.Unlock()
	p.logger.Info("endpoint reloaded from config", log.String("endpoint", ep.String()))
}

// endpointFile is the subset of the config file the default loader reads.
type endpointFile struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadTOMLEndpoint reads "host" and "port" from a TOML file. Missing keys
// fall back to notify.DefaultHost and notify.DefaultPort.
func LoadTOMLEndpoint(path string) (notify.Endpoint, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return notify.Endpoint{}, err
	}
	var f endpointFile
	if err := toml.Unmarshal(b, &f); err != nil {
		return notify.Endpoint{}, err
	}
	ep := notify.Endpoint{Host: f.Host, Port: f.Port}
	if ep.Host == "" {
		ep.Host = notify.DefaultHost
	}
	if ep.Port == 0 {
		ep.Port = notify.DefaultPort
	}
	return ep, nil
}

// Ensure Plugin implements notify.Plugin.
var _ notify.Plugin = (*Plugin)(nil)

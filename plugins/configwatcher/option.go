package configwatcher

import "github.com/monodebug/attachnotify/pkg/notify"

// WithConfigWatcher returns a notify Option that enables config file watching.
// When enabled, the plugin monitors the file and reconfigures the channel's
// endpoint when it changes.
//
// Usage:
//
//	ch, err := notify.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path:          "/home/me/.attachnotify/config.toml",
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) notify.Option {
	plugin := New(cfg)
	return notify.WithPlugin(plugin)
}

// WithDefaultConfigWatcher returns a notify Option that watches path with
// default settings (debounce 100ms, TOML host/port loader).
//
// Usage:
//
//	ch, err := notify.New(cfg, configwatcher.WithDefaultConfigWatcher(path))
func WithDefaultConfigWatcher(path string) notify.Option {
	return WithConfigWatcher(DefaultConfig(path))
}

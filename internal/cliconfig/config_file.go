package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Host                 string `toml:"host"`
	Port                 int    `toml:"port"`
	MaxReconnectAttempts int    `toml:"max_reconnect_attempts"`
	Timeout              string `toml:"timeout"`
	PollInterval         string `toml:"poll_interval"`
	MaxFrameSize         int    `toml:"max_frame_size"`
	ByteOrder            string `toml:"byte_order"`
	Encoding             string `toml:"encoding"`
	QueueRetention       string `toml:"queue_retention"`
	LogLevel             string `toml:"log_level"`
	MetricsAddr          string `toml:"metrics_addr"`
	ListenAddr           string `toml:"listen_addr"`
	Ack                  *bool  `toml:"ack"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.attachnotify/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".attachnotify", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", fc.Host, &cfg.Host)
	s.setString("byte-order", fc.ByteOrder, &cfg.ByteOrder)
	s.setString("encoding", fc.Encoding, &cfg.Encoding)
	s.setString("queue-retention", fc.QueueRetention, &cfg.QueueRetention)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)

	if err := s.setDuration("timeout", fc.Timeout, &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}

	s.setInt("port", fc.Port, &cfg.Port)
	s.setInt("max-reconnects", fc.MaxReconnectAttempts, &cfg.MaxReconnectAttempts)
	s.setInt("max-frame-size", fc.MaxFrameSize, &cfg.MaxFrameSize)

	s.setBool("ack", fc.Ack, &cfg.Ack)

	return nil
}

// LoadEndpoint reads only the engine endpoint from a config file, starting
// from fallback for fields the file leaves empty.
func LoadEndpoint(path string, fallback Config) (Config, error) {
	fc, err := LoadFileConfig(path)
	if err != nil {
		return fallback, err
	}
	cfg := fallback
	if err := ApplyFileConfig(&cfg, fc, nil); err != nil {
		return fallback, err
	}
	return cfg, nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

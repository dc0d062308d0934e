package cliconfig

import (
	"os"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "ATTACHNOTIFY_"

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment. Missing files are skipped and variables that are already set
// win over the files.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if !FileExists(p) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnvConfig applies configuration from environment variables (ATTACHNOTIFY_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(key string) string { return os.Getenv(EnvPrefix + key) }

	s.setString("host", env("HOST"), &cfg.Host)
	s.setString("byte-order", env("BYTE_ORDER"), &cfg.ByteOrder)
	s.setString("encoding", env("ENCODING"), &cfg.Encoding)
	s.setString("queue-retention", env("QUEUE_RETENTION"), &cfg.QueueRetention)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("metrics-addr", env("METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("listen", env("LISTEN_ADDR"), &cfg.ListenAddr)

	if err := s.setDuration("timeout", env("TIMEOUT"), &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("poll", env("POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}

	if err := s.setIntFromString("port", env("PORT"), &cfg.Port); err != nil {
		return err
	}
	if err := s.setIntFromString("max-reconnects", env("MAX_RECONNECT_ATTEMPTS"), &cfg.MaxReconnectAttempts); err != nil {
		return err
	}
	if err := s.setIntFromString("max-frame-size", env("MAX_FRAME_SIZE"), &cfg.MaxFrameSize); err != nil {
		return err
	}

	s.setBoolFromString("ack", env("ACK"), &cfg.Ack)

	return nil
}

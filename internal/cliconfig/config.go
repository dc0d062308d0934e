package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/monodebug/attachnotify/pkg/log"
	"github.com/monodebug/attachnotify/pkg/notify"
)

// DefaultListenAddr is where the reference engine listens by default.
const DefaultListenAddr = "127.0.0.1:9001"

// Config holds CLI configuration for attachnotify.
type Config struct {
	Host string
	Port int

	MaxReconnectAttempts int
	Timeout              time.Duration
	PollInterval         time.Duration
	MaxFrameSize         int

	ByteOrder      string
	Encoding       string
	QueueRetention string

	LogLevel    string
	MetricsAddr string

	// Engine command settings
	ListenAddr string
	Ack        bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	d := notify.DefaultConfig()
	return Config{
		Host:                 d.Endpoint.Host,
		Port:                 d.Endpoint.Port,
		MaxReconnectAttempts: d.MaxReconnectAttempts,
		Timeout:              d.Timeout,
		PollInterval:         d.PollInterval,
		MaxFrameSize:         d.MaxFrameSize,
		ByteOrder:            d.ByteOrder,
		Encoding:             d.Encoding,
		QueueRetention:       string(d.QueueRetention),
		LogLevel:             "info",
		ListenAddr:           DefaultListenAddr,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	nc, err := c.Notify()
	if err != nil {
		return err
	}
	if err := nc.Validate(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Notify converts the CLI configuration into a channel configuration.
func (c *Config) Notify() (notify.Config, error) {
	retention, err := notify.ParseQueueRetention(c.QueueRetention)
	if err != nil {
		return notify.Config{}, err
	}
	return notify.Config{
		Endpoint:             c.Endpoint(),
		MaxReconnectAttempts: c.MaxReconnectAttempts,
		Timeout:              c.Timeout,
		PollInterval:         c.PollInterval,
		MaxFrameSize:         c.MaxFrameSize,
		ByteOrder:            c.ByteOrder,
		Encoding:             c.Encoding,
		QueueRetention:       retention,
		ShutdownTimeout:      notify.DefaultShutdownTimeout,
	}, nil
}

// Endpoint returns the configured engine endpoint.
func (c *Config) Endpoint() notify.Endpoint {
	return notify.Endpoint{Host: c.Host, Port: c.Port}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

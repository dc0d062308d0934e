package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"ATTACHNOTIFY_HOST":                   "10.1.1.1",
				"ATTACHNOTIFY_PORT":                   "9200",
				"ATTACHNOTIFY_MAX_RECONNECT_ATTEMPTS": "7",
				"ATTACHNOTIFY_TIMEOUT":                "2s",
				"ATTACHNOTIFY_POLL_INTERVAL":          "10ms",
				"ATTACHNOTIFY_ENCODING":               "utf-16le",
				"ATTACHNOTIFY_QUEUE_RETENTION":        "drop",
				"ATTACHNOTIFY_ACK":                    "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Host:                 "10.1.1.1",
				Port:                 9200,
				MaxReconnectAttempts: 7,
				Timeout:              2 * time.Second,
				PollInterval:         10 * time.Millisecond,
				Encoding:             "utf-16le",
				QueueRetention:       "drop",
				Ack:                  true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"ATTACHNOTIFY_HOST": "env-host",
				"ATTACHNOTIFY_PORT": "9300",
			},
			changed: map[string]bool{"host": true},
			initial: Config{
				Host: "flag-host",
			},
			expected: Config{
				Host: "flag-host",
				Port: 9300,
			},
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"ATTACHNOTIFY_TIMEOUT": "not-a-duration",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"ATTACHNOTIFY_PORT": "not-a-number",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}
			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env")
	content := "ATTACHNOTIFY_HOST=dotenv-host\nATTACHNOTIFY_PORT=9400\n"
	if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create .env: %v", err)
	}

	// A variable set in the environment wins over the file.
	t.Setenv("ATTACHNOTIFY_PORT", "9500")
	// Register cleanup for the variable the file will set.
	t.Setenv("ATTACHNOTIFY_HOST", "")
	os.Unsetenv("ATTACHNOTIFY_HOST")

	if err := LoadDotEnv(filepath.Join(tmpDir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	cfg := Config{}
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err != nil {
		t.Fatalf("ApplyEnvConfig() error = %v", err)
	}
	if cfg.Host != "dotenv-host" {
		t.Errorf("Host = %v, want dotenv-host", cfg.Host)
	}
	if cfg.Port != 9500 {
		t.Errorf("Port = %v, want 9500 from the environment", cfg.Port)
	}
}

package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"warn", LevelWarn, false},
		{" error ", LevelError, false},
		{"trace", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConsoleAdapter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleAdapter(&buf, LevelWarn)

	logger.Info("hidden message")
	logger.Warn("visible message", String("endpoint", "127.0.0.1:9001"))

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info message written at warn level: %q", out)
	}
	if !strings.Contains(out, "visible message") {
		t.Errorf("warn message missing: %q", out)
	}
	if !strings.Contains(out, "127.0.0.1:9001") {
		t.Errorf("field missing: %q", out)
	}
}

func TestConsoleAdapter_FieldsAndWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleAdapter(&buf, LevelDebug).With(String("channel", "abc"))

	logger.Error("connect failed",
		Err(errors.New("connection refused")),
		Int("attempt", 2),
		Int64("bytes", 7),
		Bool("connected", false),
		Duration("timeout", 10*time.Second),
		Any("pending", []int{1, 2}),
	)

	out := buf.String()
	for _, want := range []string{"connect failed", "connection refused", "abc", "attempt", "timeout"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NewNoopLogger()
	l = l.With(String("k", "v"))
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x", Err(errors.New("boom")))
}

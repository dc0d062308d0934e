package configwatcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/monodebug/attachnotify/pkg/log"
	"github.com/monodebug/attachnotify/pkg/notify"
)

// fakeChannel records Reconfigure calls.
type fakeChannel struct {
	mu    sync.Mutex
	ep    notify.Endpoint
	calls []notify.Endpoint
	err   error
}

func (f *fakeChannel) Reconfigure(ep notify.Endpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.ep = ep
	f.calls = append(f.calls, ep)
	return nil
}

func (f *fakeChannel) Endpoint() notify.Endpoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ep
}

func (f *fakeChannel) Calls() []notify.Endpoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Endpoint{}, f.calls...)
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func startPlugin(t *testing.T, p *Plugin, ch notify.Reconfigurer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	err := p.Initialize(ctx, notify.PluginConfig{
		ChannelID: "test",
		Logger:    log.NewNoopLogger(),
		Channel:   ch,
	})
	if err != nil {
		cancel()
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = p.Shutdown(context.Background())
	})
}

func TestPlugin_ReloadsEndpointOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "host = \"127.0.0.1\"\nport = 9001\n")

	ch := &fakeChannel{ep: notify.Endpoint{Host: "127.0.0.1", Port: 9001}}
	p := New(Config{Path: path, DebounceDelay: 10 * time.Millisecond})
	startPlugin(t, p, ch)

	writeConfig(t, path, "host = \"10.0.0.5\"\nport = 9100\n")

	waitFor(t, func() bool { return len(ch.Calls()) == 1 })
	got := ch.Calls()[0]
	want := notify.Endpoint{Host: "10.0.0.5", Port: 9100}
	if got != want {
		t.Errorf("Reconfigure(%v), want %v", got, want)
	}
	if p.Reloads() != 1 {
		t.Errorf("Reloads() = %d, want 1", p.Reloads())
	}
}

func TestPlugin_IgnoresUnchangedEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "port = 9001\n")

	var loads int
	var mu sync.Mutex
	load := func(path string) (notify.Endpoint, error) {
		mu.Lock()
		loads++
		mu.Unlock()
		return LoadTOMLEndpoint(path)
	}

	ch := &fakeChannel{ep: notify.Endpoint{Host: notify.DefaultHost, Port: notify.DefaultPort}}
	p := New(Config{Path: path, DebounceDelay: 10 * time.Millisecond, Load: load})
	startPlugin(t, p, ch)

	writeConfig(t, path, "# comment only\nport = 9001\n")

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return loads > 0
	})
	if n := len(ch.Calls()); n != 0 {
		t.Errorf("Reconfigure called %d times, want 0", n)
	}
}

func TestPlugin_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "port = 9001\n")

	ch := &fakeChannel{ep: notify.Endpoint{Host: notify.DefaultHost, Port: notify.DefaultPort}}
	p := New(Config{Path: path, DebounceDelay: 10 * time.Millisecond})
	startPlugin(t, p, ch)

	writeConfig(t, filepath.Join(dir, "other.toml"), "port = 9200\n")
	time.Sleep(100 * time.Millisecond)

	if n := len(ch.Calls()); n != 0 {
		t.Errorf("Reconfigure called %d times, want 0", n)
	}
}

func TestPlugin_DebouncesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "port = 9001\n")

	ch := &fakeChannel{ep: notify.Endpoint{Host: notify.DefaultHost, Port: notify.DefaultPort}}
	p := New(Config{Path: path, DebounceDelay: 150 * time.Millisecond})
	startPlugin(t, p, ch)

	for port := 9101; port <= 9105; port++ {
		writeConfig(t, path, fmt.Sprintf("port = %d\n", port))
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, func() bool { return len(ch.Calls()) > 0 })
	time.Sleep(200 * time.Millisecond)

	calls := ch.Calls()
	if len(calls) != 1 {
		t.Fatalf("Reconfigure called %d times, want 1", len(calls))
	}
	if calls[0].Port != 9105 {
		t.Errorf("port = %d, want 9105", calls[0].Port)
	}
}

func TestPlugin_ReconfigureRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "port = 9001\n")

	ch := &fakeChannel{err: errors.New("rejected")}
	p := New(Config{Path: path, DebounceDelay: 10 * time.Millisecond})
	startPlugin(t, p, ch)

	writeConfig(t, path, "port = 9300\n")
	time.Sleep(150 * time.Millisecond)

	if p.Reloads() != 0 {
		t.Errorf("Reloads() = %d, want 0", p.Reloads())
	}
}

func TestPlugin_DisabledWithoutPath(t *testing.T) {
	p := New(Config{})
	err := p.Initialize(context.Background(), notify.PluginConfig{
		Logger:  log.NewNoopLogger(),
		Channel: &fakeChannel{},
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestPlugin_MissingDirectory(t *testing.T) {
	p := New(Config{Path: filepath.Join(t.TempDir(), "missing", "config.toml")})
	err := p.Initialize(context.Background(), notify.PluginConfig{
		Logger:  log.NewNoopLogger(),
		Channel: &fakeChannel{},
	})
	if err == nil {
		t.Fatal("Initialize succeeded for a missing directory")
	}
}

func TestPlugin_ShutdownRacingInitialize(t *testing.T) {
	for i := 0; i < 20; i++ {
		path := filepath.Join(t.TempDir(), "config.toml")
		writeConfig(t, path, "port = 9001\n")

		ch := &fakeChannel{ep: notify.Endpoint{Host: notify.DefaultHost, Port: notify.DefaultPort}}
		p := New(Config{Path: path, DebounceDelay: 10 * time.Millisecond})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = p.Initialize(context.Background(), notify.PluginConfig{
				Logger:  log.NewNoopLogger(),
				Channel: ch,
			})
		}()
		go func() {
			defer wg.Done()
			_ = p.Shutdown(context.Background())
		}()
		wg.Wait()

		// Whichever ran first, a final Shutdown leaves no watcher behind.
		if err := p.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown failed: %v", err)
		}
		writeConfig(t, path, "port = 9400\n")
		time.Sleep(50 * time.Millisecond)
		if n := len(ch.Calls()); n != 0 {
			t.Fatalf("iteration %d: Reconfigure called %d times after Shutdown", i, n)
		}
	}
}

func TestLoadTOMLEndpoint(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		body    string
		want    notify.Endpoint
		wantErr bool
	}{
		{"full", "host = \"engine.local\"\nport = 9500\n", notify.Endpoint{Host: "engine.local", Port: 9500}, false},
		{"defaults", "log_level = \"debug\"\n", notify.Endpoint{Host: notify.DefaultHost, Port: notify.DefaultPort}, false},
		{"port only", "port = 9002\n", notify.Endpoint{Host: notify.DefaultHost, Port: 9002}, false},
		{"malformed", "port = \n", notify.Endpoint{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".toml")
			writeConfig(t, path, tt.body)

			got, err := LoadTOMLEndpoint(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadTOMLEndpoint() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("LoadTOMLEndpoint() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := LoadTOMLEndpoint(filepath.Join(dir, "absent.toml")); err == nil {
		t.Error("LoadTOMLEndpoint() succeeded for a missing file")
	}
}

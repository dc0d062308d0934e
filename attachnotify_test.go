package attachnotify

import (
	"context"
	"testing"
	"time"
)

func TestRunStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Endpoint.Port = 1
	cfg.PollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	var got *Channel
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, cfg, func(ch *Channel) {
			got = ch
			cancel()
		})
	}()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if got == nil {
		t.Fatal("ready was not called")
	}
	if got.State().String() != "Stopped" {
		t.Errorf("state = %v, want Stopped", got.State())
	}
}

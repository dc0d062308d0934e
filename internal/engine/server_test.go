package engine

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/monodebug/attachnotify/pkg/frame"
	"github.com/monodebug/attachnotify/pkg/notify"
)

func startServer(t *testing.T, cfg Config, handler Handler) (*Server, <-chan error) {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	s := New(cfg, handler, nil)
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s, done
}

type replyRecorder struct {
	notify.BaseEventHandler

	mu      sync.Mutex
	replies []string
}

func (r *replyRecorder) OnReceive(e notify.ReceiveEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, e.Text)
}

func (r *replyRecorder) Replies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.replies...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestServer_AckRoundTrip(t *testing.T) {
	var mu sync.Mutex
	var got []string
	s, _ := startServer(t, Config{}, Ack(func(remote string, payload []byte) []byte {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(payload))
		return nil
	}))

	cfg := notify.DefaultConfig()
	cfg.Endpoint.Port = s.Addr().(*net.TCPAddr).Port
	cfg.PollInterval = 5 * time.Millisecond

	recorder := &replyRecorder{}
	ch, err := notify.New(cfg, notify.WithEventHandler(recorder))
	if err != nil {
		t.Fatalf("notify.New() error = %v", err)
	}
	if err := ch.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer ch.Stop()

	if err := ch.SendAttach(true); err != nil {
		t.Fatalf("SendAttach() error = %v", err)
	}
	if err := ch.SendDetach(false); err != nil {
		t.Fatalf("SendDetach() error = %v", err)
	}

	waitFor(t, "two acks", func() bool { return len(recorder.Replies()) == 2 })

	mu.Lock()
	defer mu.Unlock()
	want := []string{"cmd:Attach;value:True", "cmd:Detach;value:False"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("handler payload %d = %q, want %q", i, got[i], want[i])
		}
		if r := recorder.Replies()[i]; r != AckPrefix+want[i] {
			t.Errorf("reply %d = %q, want %q", i, r, AckPrefix+want[i])
		}
	}
	if s.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", s.Frames())
	}
}

func TestServer_RejectsOversizedFrame(t *testing.T) {
	s, _ := startServer(t, Config{MaxFrameSize: 8}, nil)

	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	var hdr [frame.HeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[:], 100)
	if _, err := conn.Write(hdr[:]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("Read() error = %v, want io.EOF after server closed", err)
	}
}

func TestServer_BigEndian(t *testing.T) {
	received := make(chan string, 1)
	s, _ := startServer(t, Config{ByteOrder: binary.BigEndian}, func(remote string, payload []byte) []byte {
		received <- string(payload)
		return nil
	})

	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	if err := frame.Write(conn, []byte("cmd:Attach;value:False"), binary.BigEndian); err != nil {
		t.Fatalf("frame.Write() error = %v", err)
	}

	select {
	case p := <-received:
		if p != "cmd:Attach;value:False" {
			t.Errorf("payload = %q", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestServer_CloseEndsServe(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"}, nil, nil)
	if err := s.Serve(context.Background()); err == nil {
		t.Error("Serve() before Listen error = nil")
	}
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background()) }()

	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	_ = s.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after Close")
	}
}

// brokenListener fails every Accept until it is closed.
type brokenListener struct {
	accepts atomic.Int32
	closed  chan struct{}
	once    sync.Once
}

func (l *brokenListener) Accept() (net.Conn, error) {
	l.accepts.Add(1)
	select {
	case <-l.closed:
		return nil, net.ErrClosed
	default:
		return nil, errors.New("accept: too many open files")
	}
}

func (l *brokenListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *brokenListener) Addr() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }

func TestServer_AcceptErrorsBackOff(t *testing.T) {
	ln := &brokenListener{closed: make(chan struct{})}
	s := New(Config{}, nil, nil)
	s.listener = ln

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	// 5+10+20+40ms fills the window, so only a handful of retries fit.
	if n := ln.accepts.Load(); n > 10 {
		t.Errorf("Accept called %d times in 100ms, want at most 10", n)
	}
}

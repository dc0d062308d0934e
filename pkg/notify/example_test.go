package notify_test

import (
	"context"
	"fmt"
	"net"

	"github.com/monodebug/attachnotify/pkg/frame"
	"github.com/monodebug/attachnotify/pkg/notify"
)

// ExampleChannel_SendAttach sends one Attach notification to a local engine.
func ExampleChannel_SendAttach() {
	// Stand-in engine listener
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		if payload, err := frame.Read(conn, frame.Wire, 0); err == nil {
			received <- string(payload)
		}
	}()

	cfg := notify.DefaultConfig()
	cfg.Endpoint.Port = ln.Addr().(*net.TCPAddr).Port

	ch, err := notify.New(cfg)
	if err != nil {
		fmt.Printf("failed to create channel: %v\n", err)
		return
	}
	if err := ch.Start(context.Background()); err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}
	defer ch.Stop()

	_ = ch.SendAttach(true)
	fmt.Println(<-received)

	// Output: cmd:Attach;value:True
}

// detachLogger prints what the engine sends back.
type detachLogger struct {
	notify.BaseEventHandler
}

func (detachLogger) OnReceive(e notify.ReceiveEvent) {
	fmt.Println("engine replied:", e.Text)
}

// Example_withEventHandler shows how to observe replies from the engine.
func Example_withEventHandler() {
	cfg := notify.DefaultConfig()
	cfg.Endpoint = notify.Endpoint{Host: "127.0.0.1", Port: 9001}

	ch, err := notify.New(cfg, notify.WithEventHandler(detachLogger{}))
	if err != nil {
		fmt.Printf("failed to create channel: %v\n", err)
		return
	}
	fmt.Println(ch.State())

	// Output: Uninitialized
}

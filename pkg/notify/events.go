package notify

import (
	"time"

	"github.com/monodebug/attachnotify/pkg/lifecycle"
)

// State is the lifecycle state of a Channel.
type State = lifecycle.State

// Lifecycle states re-exported for callers of this package.
const (
	StateUninitialized = lifecycle.StateUninitialized
	StateRunning       = lifecycle.StateRunning
	StateStopping      = lifecycle.StateStopping
	StateStopped       = lifecycle.StateStopped
)

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	ChannelID string
	Previous  State
	Current   State
	Reason    string
}

// ConnectEvent is emitted after a successful connect.
type ConnectEvent struct {
	ChannelID string
	Endpoint  Endpoint
	Duration  time.Duration
}

// ConnectErrorEvent is emitted when a connect attempt fails.
type ConnectErrorEvent struct {
	ChannelID string
	Endpoint  Endpoint
	Error     error
	// Attempts is the number of consecutive failures including this one.
	Attempts int
}

// ReconnectCeilingEvent is emitted when a connect attempt is suppressed
// because the ceiling was reached. Enqueueing a message lifts it.
type ReconnectCeilingEvent struct {
	ChannelID string
	Endpoint  Endpoint
	Attempts  int
	Pending   int
}

// SendSuccessEvent is emitted after one queued message has been written.
type SendSuccessEvent struct {
	ChannelID string
	Bytes     int
	Duration  time.Duration
}

// SendErrorEvent is emitted when writing a queued message fails.
type SendErrorEvent struct {
	ChannelID string
	Error     error
	// Pending is the number of messages still queued after the failure.
	Pending int
}

// ReceiveEvent is emitted for every complete inbound frame.
type ReceiveEvent struct {
	ChannelID string
	Payload   []byte
	// Text is Payload decoded with the configured encoding.
	Text string
}

// DisconnectEvent is emitted when the connection is torn down.
type DisconnectEvent struct {
	ChannelID string
	Endpoint  Endpoint
	Error     error
	// Dropped counts messages discarded under DropQueue.
	Dropped int
}

// EventHandler receives notifications about channel activity.
// Methods are called synchronously from the worker goroutine and must return
// quickly. They may call Enqueue.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnConnect(ConnectEvent)
	OnConnectError(ConnectErrorEvent)
	OnReconnectCeiling(ReconnectCeilingEvent)
	OnSendSuccess(SendSuccessEvent)
	OnSendError(SendErrorEvent)
	OnReceive(ReceiveEvent)
	OnDisconnect(DisconnectEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only the events you care about.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)           {}
func (BaseEventHandler) OnConnect(ConnectEvent)                   {}
func (BaseEventHandler) OnConnectError(ConnectErrorEvent)         {}
func (BaseEventHandler) OnReconnectCeiling(ReconnectCeilingEvent) {}
func (BaseEventHandler) OnSendSuccess(SendSuccessEvent)           {}
func (BaseEventHandler) OnSendError(SendErrorEvent)               {}
func (BaseEventHandler) OnReceive(ReceiveEvent)                   {}
func (BaseEventHandler) OnDisconnect(DisconnectEvent)             {}

var _ EventHandler = BaseEventHandler{}

// lifecycleEmitter adapts EventHandler to lifecycle.EventEmitter.
type lifecycleEmitter struct {
	id      string
	handler EventHandler
}

func (e lifecycleEmitter) OnStateChange(previous, current lifecycle.State, reason string) {
	e.handler.OnStateChange(StateChangeEvent{
		ChannelID: e.id,
		Previous:  previous,
		Current:   current,
		Reason:    reason,
	})
}

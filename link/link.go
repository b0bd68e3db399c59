// Package link implements the connection-lifecycle engine for both
// protocol roles. An Initiator dials a fixed peer address and retries
// forever on failure; a Listener binds a local endpoint and accepts one
// peer at a time. Both run a blocking receive loop on their own goroutine
// and deliver messages and status transitions to a Handler in wire order.
package link

import (
	"errors"
	"time"

	"github.com/ghostlink/ghostlink/internal/netio"
	"github.com/ghostlink/ghostlink/observability"
	"github.com/ghostlink/ghostlink/protocol"
)

// State is the engine's connection state.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateListening    State = "listening"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateError        State = "error"
)

// Status is one state transition. Detail carries the peer address, the
// listening address, or error text, depending on the state.
type Status struct {
	State  State
	Detail string
}

// Handler receives engine events. Both methods are invoked serially from
// the engine's goroutine: messages arrive in exact wire order and are
// never dispatched concurrently, and a slow handler backpressures the
// receive loop rather than reordering it.
type Handler interface {
	OnMessage(msgType uint8, payload []byte)
	OnStatus(st Status)
}

// DefaultRetryInterval is the fixed delay between reconnect attempts.
const DefaultRetryInterval = 2 * time.Second

// Config holds engine tunables shared by both roles.
type Config struct {
	// MaxPayloadBytes bounds the declared payload length of incoming
	// frames (0 uses protocol.DefaultMaxPayload).
	MaxPayloadBytes int

	// RetryInterval is the fixed sleep between initiator reconnect
	// attempts (0 uses DefaultRetryInterval).
	RetryInterval time.Duration

	// Observer receives metric events (nil uses the no-op observer).
	Observer observability.LinkObserver
}

func (c Config) withDefaults() Config {
	if c.MaxPayloadBytes <= 0 {
		c.MaxPayloadBytes = protocol.DefaultMaxPayload
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	if c.Observer == nil {
		c.Observer = observability.NoopLinkObserver
	}
	return c
}

// closeReason classifies the error that ended a session for metrics and
// status details. A nil error means the peer closed cleanly.
func closeReason(err error) observability.CloseReason {
	switch {
	case err == nil:
		return observability.CloseReasonPeerClosed
	case errors.Is(err, netio.ErrTruncated):
		return observability.CloseReasonTruncatedFrame
	case errors.Is(err, netio.ErrClosed):
		return observability.CloseReasonPeerClosed
	case errors.Is(err, protocol.ErrMalformedHeader):
		return observability.CloseReasonMalformedHeader
	case errors.Is(err, protocol.ErrPayloadTooLarge):
		return observability.CloseReasonPayloadTooLarge
	default:
		return observability.CloseReasonReceiveError
	}
}

// Package transport abstracts the reliable byte stream the protocol runs
// over. The framing and envelope layers only see Conn; TCP and WebSocket
// implementations live in the subpackages.
package transport

import (
	"context"
	"io"
)

// Conn is one established bidirectional byte stream to the peer. Close may
// be called from a different goroutine than Read to unblock a pending read;
// implementations must support that.
type Conn interface {
	io.Reader
	io.Writer
	Close() error

	// RemoteAddr describes the peer for status events and logs.
	RemoteAddr() string
}

// Dialer opens connections to a fixed peer address agreed out-of-band.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)

	// Addr is the target address, for status events.
	Addr() string
}

// Listener accepts connections from the peer. Accept blocks; Close from
// another goroutine unblocks it.
type Listener interface {
	Accept() (Conn, error)
	Addr() string
	Close() error
}

// Binder binds a local endpoint and produces a Listener. Binding is
// deferred to the connection engine so bind failures surface as engine
// status events.
type Binder interface {
	Listen() (Listener, error)
}

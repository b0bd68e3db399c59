// Package tcp provides the plain TCP transport.
package tcp

import (
	"context"
	"net"
	"time"

	"github.com/ghostlink/ghostlink/transport"
)

type conn struct {
	net.Conn
}

func (c conn) RemoteAddr() string { return c.Conn.RemoteAddr().String() }

// Dialer dials a fixed TCP address.
type Dialer struct {
	Target  string
	Timeout time.Duration // per-attempt connect timeout (0 disables)
}

func (d Dialer) Addr() string { return d.Target }

func (d Dialer) Dial(ctx context.Context) (transport.Conn, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	c, err := nd.DialContext(ctx, "tcp", d.Target)
	if err != nil {
		return nil, err
	}
	return conn{c}, nil
}

// Binder binds a TCP listening socket.
type Binder struct {
	Addr string
}

func (b Binder) Listen() (transport.Listener, error) {
	ln, err := net.Listen("tcp", b.Addr)
	if err != nil {
		return nil, err
	}
	return &listener{ln: ln}, nil
}

type listener struct {
	ln net.Listener
}

func (l *listener) Accept() (transport.Conn, error) {
	c, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return conn{c}, nil
}

func (l *listener) Addr() string { return l.ln.Addr().String() }

func (l *listener) Close() error { return l.ln.Close() }

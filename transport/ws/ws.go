// Package ws adapts a WebSocket connection into the byte stream the
// protocol expects. Each Write becomes one binary message; Read drains
// successive binary messages. The wire bytes inside the messages are the
// same header+payload frames used on TCP.
package ws

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ghostlink/ghostlink/transport"
)

// streamConn presents a *websocket.Conn as a transport.Conn.
type streamConn struct {
	ws     *websocket.Conn
	reader io.Reader // current in-progress binary message, nil between messages
}

func newStreamConn(c *websocket.Conn) *streamConn {
	return &streamConn{ws: c}
}

func (c *streamConn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			mt, r, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			c.reader = r
		}
		n, err := c.reader.Read(p)
		if err == io.EOF {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *streamConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *streamConn) Close() error { return c.ws.Close() }

func (c *streamConn) RemoteAddr() string { return c.ws.RemoteAddr().String() }

// Dialer dials a fixed WebSocket URL.
type Dialer struct {
	URL              string
	HandshakeTimeout time.Duration
}

func (d Dialer) Addr() string { return d.URL }

func (d Dialer) Dial(ctx context.Context) (transport.Conn, error) {
	wd := websocket.Dialer{HandshakeTimeout: d.HandshakeTimeout}
	c, resp, err := wd.DialContext(ctx, d.URL, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, err
	}
	return newStreamConn(c), nil
}

// Binder serves a WebSocket upgrade endpoint and hands accepted
// connections to the engine one at a time.
type Binder struct {
	Addr string
	Path string // upgrade path (default "/ws")
}

func (b Binder) Listen() (transport.Listener, error) {
	path := b.Path
	if path == "" {
		path = "/ws"
	}
	ln, err := net.Listen("tcp", b.Addr)
	if err != nil {
		return nil, err
	}
	l := &listener{
		ln:      ln,
		accepts: make(chan *streamConn),
		done:    make(chan struct{}),
	}
	up := websocket.Upgrader{
		// Non-browser peers send no Origin header; accept all.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		select {
		case l.accepts <- newStreamConn(c):
		case <-l.done:
			_ = c.Close()
		}
	})
	l.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.close()
		}
	}()
	return l, nil
}

type listener struct {
	ln      net.Listener
	srv     *http.Server
	accepts chan *streamConn

	once sync.Once
	done chan struct{}
}

var errListenerClosed = errors.New("ws listener closed")

func (l *listener) Accept() (transport.Conn, error) {
	select {
	case c := <-l.accepts:
		return c, nil
	case <-l.done:
		return nil, errListenerClosed
	}
}

func (l *listener) Addr() string { return l.ln.Addr().String() }

func (l *listener) close() {
	l.once.Do(func() { close(l.done) })
}

func (l *listener) Close() error {
	l.close()
	return l.srv.Close()
}

package link

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ghostlink/ghostlink/protocol"
	"github.com/ghostlink/ghostlink/transport"
	"github.com/ghostlink/ghostlink/transport/tcp"
)

func TestListenerBindFailureIsFatal(t *testing.T) {
	h := newRecHandler()
	eng := NewListener(Config{}, tcp.Binder{Addr: "256.0.0.1:0"}, testEnvelope(t), h)
	err := eng.Run()
	require.Error(t, err)

	st := waitState(t, h.statuses, StateError)
	require.Contains(t, st.Detail, "bind failed")
}

func TestListenerStopUnblocksAccept(t *testing.T) {
	h := newRecHandler()
	eng := NewListener(Config{}, tcp.Binder{Addr: "127.0.0.1:0"}, testEnvelope(t), h)

	done := make(chan error, 1)
	go func() { done <- eng.Run() }()

	st := waitState(t, h.statuses, StateListening)
	require.NotEmpty(t, st.Detail)

	eng.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not unblock the accept loop")
	}
}

// gatedListener parks Accept until released, then hands over conn.
type gatedListener struct {
	release chan struct{}
	conn    transport.Conn
}

func (g *gatedListener) Accept() (transport.Conn, error) {
	<-g.release
	return g.conn, nil
}

func (g *gatedListener) Addr() string { return "gated" }
func (g *gatedListener) Close() error { return nil }

type gatedBinder struct {
	ln transport.Listener
}

func (b gatedBinder) Listen() (transport.Listener, error) { return b.ln, nil }

func TestListenerStopDuringAcceptClosesNewConn(t *testing.T) {
	conn := newSilentConn()
	gl := &gatedListener{release: make(chan struct{}), conn: conn}

	h := newRecHandler()
	eng := NewListener(Config{}, gatedBinder{ln: gl}, testEnvelope(t), h)
	done := make(chan error, 1)
	go func() { done <- eng.Run() }()

	waitState(t, h.statuses, StateListening)

	// Stop lands while Accept is still blocked; the conn it then hands
	// over must be closed rather than parked in receive.
	eng.Stop()
	close(gl.release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return for a conn accepted after Stop")
	}
	require.True(t, conn.isClosed(), "conn accepted after Stop was never closed")
}

func TestListenerSendWithoutPeerIsDropped(t *testing.T) {
	h := newRecHandler()
	eng := NewListener(Config{}, tcp.Binder{Addr: "127.0.0.1:0"}, testEnvelope(t), h)

	done := make(chan error, 1)
	go func() { done <- eng.Run() }()
	waitState(t, h.statuses, StateListening)

	eng.Send(protocol.TypeText, []byte("nobody there"))
	require.Empty(t, h.messages)

	eng.Stop()
	require.NoError(t, <-done)
}

package e2e_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ghostlink/ghostlink/crypto/envelope"
	"github.com/ghostlink/ghostlink/link"
	"github.com/ghostlink/ghostlink/protocol"
	"github.com/ghostlink/ghostlink/transport/tcp"
	"github.com/ghostlink/ghostlink/transport/ws"
)

type recMsg struct {
	msgType uint8
	payload []byte
}

type peerHandler struct {
	messages chan recMsg
	statuses chan link.Status
}

func newPeerHandler() *peerHandler {
	return &peerHandler{
		messages: make(chan recMsg, 128),
		statuses: make(chan link.Status, 128),
	}
}

func (h *peerHandler) OnMessage(msgType uint8, payload []byte) {
	h.messages <- recMsg{msgType: msgType, payload: append([]byte(nil), payload...)}
}

func (h *peerHandler) OnStatus(st link.Status) {
	h.statuses <- st
}

func (h *peerHandler) waitState(t *testing.T, want link.State) link.Status {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case st := <-h.statuses:
			if st.State == want {
				return st
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %q", want)
		}
	}
}

func (h *peerHandler) waitMessage(t *testing.T) recMsg {
	t.Helper()
	select {
	case m := <-h.messages:
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
		return recMsg{}
	}
}

func freshEnvelope(t *testing.T) *envelope.Envelope {
	t.Helper()
	key, err := envelope.GenerateKey()
	require.NoError(t, err)
	return envelope.New(key)
}

func TestEndToEndOverTCP(t *testing.T) {
	key, err := envelope.GenerateKey()
	require.NoError(t, err)

	cfg := link.Config{RetryInterval: 20 * time.Millisecond}

	serverH := newPeerHandler()
	server := link.NewListener(cfg, tcp.Binder{Addr: "127.0.0.1:0"}, envelope.New(key), serverH)
	serverDone := make(chan error, 1)
	go func() { serverDone <- server.Run() }()
	defer server.Stop()

	addr := serverH.waitState(t, link.StateListening).Detail

	clientH := newPeerHandler()
	client := link.NewInitiator(cfg, tcp.Dialer{Target: addr}, envelope.New(key), clientH)
	clientDone := make(chan struct{})
	go func() {
		client.Run()
		close(clientDone)
	}()

	serverH.waitState(t, link.StateConnected)
	clientH.waitState(t, link.StateConnected)

	// Initiator → listener.
	client.Send(protocol.TypeText, []byte("hello"))
	got := serverH.waitMessage(t)
	require.Equal(t, protocol.TypeText, got.msgType)
	require.Equal(t, []byte("hello"), got.payload)

	// Listener → initiator.
	server.Send(protocol.TypeText, []byte("world"))
	got = clientH.waitMessage(t)
	require.Equal(t, protocol.TypeText, got.msgType)
	require.Equal(t, []byte("world"), got.payload)

	// Empty system payload survives the round trip.
	client.Send(protocol.TypeSystem, nil)
	got = serverH.waitMessage(t)
	require.Equal(t, protocol.TypeSystem, got.msgType)
	require.Empty(t, got.payload)

	// Dropping the initiator makes the listener disconnect and re-accept.
	client.Stop()
	<-clientDone
	serverH.waitState(t, link.StateDisconnected)
	serverH.waitState(t, link.StateListening)

	clientH2 := newPeerHandler()
	client2 := link.NewInitiator(cfg, tcp.Dialer{Target: addr}, envelope.New(key), clientH2)
	go client2.Run()
	defer client2.Stop()

	serverH.waitState(t, link.StateConnected)
	client2.Send(protocol.TypeText, []byte("back again"))
	got = serverH.waitMessage(t)
	require.Equal(t, []byte("back again"), got.payload)

	server.Stop()
	require.NoError(t, <-serverDone)
}

func TestWrongKeyMessagesAreDroppedNotFatal(t *testing.T) {
	serverEnv := freshEnvelope(t)
	clientEnv := freshEnvelope(t) // different key on purpose

	cfg := link.Config{RetryInterval: 20 * time.Millisecond}

	serverH := newPeerHandler()
	server := link.NewListener(cfg, tcp.Binder{Addr: "127.0.0.1:0"}, serverEnv, serverH)
	go func() { _ = server.Run() }()
	defer server.Stop()

	addr := serverH.waitState(t, link.StateListening).Detail

	clientH := newPeerHandler()
	client := link.NewInitiator(cfg, tcp.Dialer{Target: addr}, clientEnv, clientH)
	go client.Run()
	defer client.Stop()

	serverH.waitState(t, link.StateConnected)
	client.Send(protocol.TypeText, []byte("wrong key"))

	// The frame is hash-valid, so it is dropped at decryption and the
	// session stays up: no message, no disconnect.
	select {
	case m := <-serverH.messages:
		t.Fatalf("undecryptable message was delivered: %v", m)
	case st := <-serverH.statuses:
		t.Fatalf("unexpected status %+v", st)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestEndToEndOverWebSocket(t *testing.T) {
	key, err := envelope.GenerateKey()
	require.NoError(t, err)

	cfg := link.Config{RetryInterval: 20 * time.Millisecond}

	serverH := newPeerHandler()
	server := link.NewListener(cfg, ws.Binder{Addr: "127.0.0.1:0", Path: "/ws"}, envelope.New(key), serverH)
	go func() { _ = server.Run() }()
	defer server.Stop()

	addr := serverH.waitState(t, link.StateListening).Detail

	clientH := newPeerHandler()
	client := link.NewInitiator(cfg, ws.Dialer{URL: fmt.Sprintf("ws://%s/ws", addr)}, envelope.New(key), clientH)
	go client.Run()
	defer client.Stop()

	serverH.waitState(t, link.StateConnected)
	clientH.waitState(t, link.StateConnected)

	client.Send(protocol.TypeText, []byte("over websocket"))
	got := serverH.waitMessage(t)
	require.Equal(t, []byte("over websocket"), got.payload)

	server.Send(protocol.TypeFile, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	got = clientH.waitMessage(t)
	require.Equal(t, protocol.TypeFile, got.msgType)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, got.payload)
}

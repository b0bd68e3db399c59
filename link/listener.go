package link

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ghostlink/ghostlink/crypto/envelope"
	"github.com/ghostlink/ghostlink/internal/logutil"
	"github.com/ghostlink/ghostlink/observability"
	"github.com/ghostlink/ghostlink/transport"
)

// Listener is the accepting role. It serves exactly one peer at a time:
// the accept loop does not run again until the current session ends, so a
// second initiator dialing in stays queued in the OS backlog.
type Listener struct {
	cfg     Config
	binder  transport.Binder
	env     *envelope.Envelope
	handler Handler

	running  atomic.Bool
	stopOnce sync.Once

	mu  sync.Mutex
	ln  transport.Listener
	cur *session
}

// NewListener builds the accepting engine. Binding happens inside Run so
// bind failures surface as an error status.
func NewListener(cfg Config, binder transport.Binder, env *envelope.Envelope, handler Handler) *Listener {
	return &Listener{
		cfg:     cfg.withDefaults(),
		binder:  binder,
		env:     env,
		handler: handler,
	}
}

// Run binds the local endpoint and serves peers serially until Stop. A
// bind or accept failure is fatal to the engine: unlike a transient peer
// drop, an unusable local resource is not retried.
func (l *Listener) Run() error {
	l.running.Store(true)
	ln, err := l.binder.Listen()
	if err != nil {
		logutil.Error("bind failed: %v", err)
		l.emit(StateError, fmt.Sprintf("bind failed: %v", err))
		return err
	}
	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()
	if !l.running.Load() {
		// Stop raced with bind.
		_ = ln.Close()
		return nil
	}
	logutil.Info("listening on %s", ln.Addr())
	l.emit(StateListening, ln.Addr())

	for l.running.Load() {
		conn, err := ln.Accept()
		if err != nil {
			if !l.running.Load() {
				break
			}
			logutil.Error("accept failed: %v", err)
			l.emit(StateError, fmt.Sprintf("accept failed: %v", err))
			return err
		}

		sess := newSession(conn, l.env, l.cfg)
		l.mu.Lock()
		if !l.running.Load() {
			// Stop raced with the accept; close the conn it never saw.
			l.mu.Unlock()
			_ = conn.Close()
			break
		}
		l.cur = sess
		l.mu.Unlock()
		l.cfg.Observer.SessionOpened()
		logutil.Info("peer connected from %s", conn.RemoteAddr())
		l.emit(StateConnected, conn.RemoteAddr())

		err = sess.receive(l.handler)
		_ = conn.Close()
		l.mu.Lock()
		l.cur = nil
		l.mu.Unlock()

		if !l.running.Load() {
			l.cfg.Observer.SessionClosed(observability.CloseReasonStopped)
			break
		}
		l.cfg.Observer.SessionClosed(closeReason(err))
		l.emit(StateDisconnected, err.Error())
		l.emit(StateListening, ln.Addr())
	}
	l.emit(StateIdle, "")
	return nil
}

// Send seals, frames, and writes payload to the connected peer. With no
// peer it logs and drops.
func (l *Listener) Send(msgType uint8, payload []byte) {
	l.mu.Lock()
	sess := l.cur
	l.mu.Unlock()
	if sess == nil {
		logutil.Warning("no peer connected, dropping message type %d", msgType)
		l.cfg.Observer.SendDropped()
		return
	}
	if err := sess.send(msgType, payload); err != nil {
		logutil.Error("send failed: %v", err)
		l.cfg.Observer.SendDropped()
	}
}

// Stop closes both the listening socket and any active peer socket,
// unblocking a pending accept or read inside Run.
func (l *Listener) Stop() {
	l.running.Store(false)
	l.stopOnce.Do(func() {
		l.mu.Lock()
		ln, sess := l.ln, l.cur
		l.mu.Unlock()
		if sess != nil {
			_ = sess.conn.Close()
		}
		if ln != nil {
			_ = ln.Close()
		}
	})
}

func (l *Listener) emit(state State, detail string) {
	l.cfg.Observer.StateChange(string(state))
	l.handler.OnStatus(Status{State: state, Detail: detail})
}

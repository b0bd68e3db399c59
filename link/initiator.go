package link

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ghostlink/ghostlink/crypto/envelope"
	"github.com/ghostlink/ghostlink/internal/logutil"
	"github.com/ghostlink/ghostlink/observability"
	"github.com/ghostlink/ghostlink/transport"
)

// Initiator is the dialing role. Run blocks, connecting to the fixed peer
// address and re-dialing after every failure until Stop is called. There
// is no retry cap; an unplugged peer simply keeps the engine in its
// connect/sleep loop.
type Initiator struct {
	cfg     Config
	dialer  transport.Dialer
	env     *envelope.Envelope
	handler Handler

	running  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}

	mu  sync.Mutex
	cur *session
}

// NewInitiator builds the dialing engine. handler must not be nil.
func NewInitiator(cfg Config, dialer transport.Dialer, env *envelope.Envelope, handler Handler) *Initiator {
	return &Initiator{
		cfg:     cfg.withDefaults(),
		dialer:  dialer,
		env:     env,
		handler: handler,
		stopCh:  make(chan struct{}),
	}
}

// Run drives the connect/receive/retry loop until Stop. It is meant to be
// launched on its own goroutine; Send and Stop are safe from any other.
func (i *Initiator) Run() {
	i.running.Store(true)
	for i.running.Load() {
		i.emit(StateConnecting, i.dialer.Addr())
		conn, err := i.dialer.Dial(context.Background())
		if err != nil {
			if !i.running.Load() {
				break
			}
			logutil.Info("connect to %s failed: %v", i.dialer.Addr(), err)
			i.emit(StateDisconnected, fmt.Sprintf("connect failed: %v", err))
			i.cfg.Observer.ConnectRetry()
			if !i.sleepRetry() {
				break
			}
			continue
		}

		sess := newSession(conn, i.env, i.cfg)
		i.mu.Lock()
		if !i.running.Load() {
			// Stop raced with the dial; a conn established after Stop
			// must be closed here or nothing ever will.
			i.mu.Unlock()
			_ = conn.Close()
			break
		}
		i.cur = sess
		i.mu.Unlock()
		i.cfg.Observer.SessionOpened()
		i.emit(StateConnected, conn.RemoteAddr())

		err = sess.receive(i.handler)
		_ = conn.Close()
		i.mu.Lock()
		i.cur = nil
		i.mu.Unlock()

		if !i.running.Load() {
			i.cfg.Observer.SessionClosed(observability.CloseReasonStopped)
			break
		}
		i.cfg.Observer.SessionClosed(closeReason(err))
		i.emit(StateDisconnected, err.Error())
		i.cfg.Observer.ConnectRetry()
		if !i.sleepRetry() {
			break
		}
	}
	i.emit(StateIdle, "")
}

// sleepRetry waits the fixed backoff interval. It returns false when Stop
// interrupted the wait.
func (i *Initiator) sleepRetry() bool {
	t := time.NewTimer(i.cfg.RetryInterval)
	defer t.Stop()
	select {
	case <-t.C:
		return i.running.Load()
	case <-i.stopCh:
		return false
	}
}

// Send seals, frames, and writes payload on the active session. With no
// session it logs and drops; failures never propagate to the caller.
func (i *Initiator) Send(msgType uint8, payload []byte) {
	i.mu.Lock()
	sess := i.cur
	i.mu.Unlock()
	if sess == nil {
		logutil.Warning("no active session, dropping message type %d", msgType)
		i.cfg.Observer.SendDropped()
		return
	}
	if err := sess.send(msgType, payload); err != nil {
		logutil.Error("send failed: %v", err)
		i.cfg.Observer.SendDropped()
	}
}

// Stop ends the engine. Closing the active socket from here unblocks a
// pending read inside Run immediately.
func (i *Initiator) Stop() {
	i.running.Store(false)
	i.stopOnce.Do(func() { close(i.stopCh) })
	i.mu.Lock()
	sess := i.cur
	i.mu.Unlock()
	if sess != nil {
		_ = sess.conn.Close()
	}
}

func (i *Initiator) emit(state State, detail string) {
	i.cfg.Observer.StateChange(string(state))
	i.handler.OnStatus(Status{State: state, Detail: detail})
}

// Package observability defines metric hooks for the connection engine.
// The engine calls a LinkObserver; implementations decide where the
// numbers go. The default is a no-op so metrics cost nothing when unused.
package observability

import (
	"sync"
	"sync/atomic"
)

// CloseReason labels why a session ended.
type CloseReason string

const (
	CloseReasonPeerClosed      CloseReason = "peer_closed"
	CloseReasonTruncatedFrame  CloseReason = "truncated_frame"
	CloseReasonMalformedHeader CloseReason = "malformed_header"
	CloseReasonPayloadTooLarge CloseReason = "payload_too_large"
	CloseReasonStopped         CloseReason = "stopped"
	CloseReasonReceiveError    CloseReason = "receive_error"
)

// LinkObserver receives connection-engine metric events.
type LinkObserver interface {
	StateChange(state string)
	SessionOpened()
	SessionClosed(reason CloseReason)
	ConnectRetry()
	MessageSent(msgType uint8, wireBytes int)
	MessageReceived(msgType uint8, plainBytes int)
	IntegrityFailure()
	DecryptFailure()
	SendDropped()
}

type noopLinkObserver struct{}

func (noopLinkObserver) StateChange(string)           {}
func (noopLinkObserver) SessionOpened()               {}
func (noopLinkObserver) SessionClosed(CloseReason)    {}
func (noopLinkObserver) ConnectRetry()                {}
func (noopLinkObserver) MessageSent(uint8, int)       {}
func (noopLinkObserver) MessageReceived(uint8, int)   {}
func (noopLinkObserver) IntegrityFailure()            {}
func (noopLinkObserver) DecryptFailure()              {}
func (noopLinkObserver) SendDropped()                 {}

// NoopLinkObserver is a zero-cost observer used when metrics are disabled.
var NoopLinkObserver LinkObserver = noopLinkObserver{}

// AtomicLinkObserver swaps its delegate at runtime, so metrics can be
// enabled after the engine is already running.
type AtomicLinkObserver struct {
	v atomic.Value
	o sync.Once
}

type holder struct {
	obs LinkObserver
}

// NewAtomicLinkObserver returns an initialized atomic observer delegating
// to the no-op observer.
func NewAtomicLinkObserver() *AtomicLinkObserver {
	a := &AtomicLinkObserver{}
	a.init()
	return a
}

func (a *AtomicLinkObserver) init() {
	a.o.Do(func() { a.v.Store(&holder{obs: NoopLinkObserver}) })
}

// Set replaces the delegate, falling back to the no-op observer on nil.
func (a *AtomicLinkObserver) Set(obs LinkObserver) {
	if obs == nil {
		obs = NoopLinkObserver
	}
	a.init()
	a.v.Store(&holder{obs: obs})
}

func (a *AtomicLinkObserver) get() LinkObserver {
	a.init()
	return a.v.Load().(*holder).obs
}

func (a *AtomicLinkObserver) StateChange(s string)            { a.get().StateChange(s) }
func (a *AtomicLinkObserver) SessionOpened()                  { a.get().SessionOpened() }
func (a *AtomicLinkObserver) SessionClosed(r CloseReason)     { a.get().SessionClosed(r) }
func (a *AtomicLinkObserver) ConnectRetry()                   { a.get().ConnectRetry() }
func (a *AtomicLinkObserver) MessageSent(t uint8, n int)      { a.get().MessageSent(t, n) }
func (a *AtomicLinkObserver) MessageReceived(t uint8, n int)  { a.get().MessageReceived(t, n) }
func (a *AtomicLinkObserver) IntegrityFailure()               { a.get().IntegrityFailure() }
func (a *AtomicLinkObserver) DecryptFailure()                 { a.get().DecryptFailure() }
func (a *AtomicLinkObserver) SendDropped()                    { a.get().SendDropped() }

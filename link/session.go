package link

import (
	"errors"
	"sync"

	"github.com/ghostlink/ghostlink/crypto/envelope"
	"github.com/ghostlink/ghostlink/internal/logutil"
	"github.com/ghostlink/ghostlink/internal/netio"
	"github.com/ghostlink/ghostlink/observability"
	"github.com/ghostlink/ghostlink/protocol"
	"github.com/ghostlink/ghostlink/transport"
)

// session pairs one live connection with the envelope and the write lock.
// It is owned by a single engine; the receive loop runs on the engine's
// goroutine while send may be called from any goroutine.
type session struct {
	conn       transport.Conn
	env        *envelope.Envelope
	maxPayload int
	obs        observability.LinkObserver

	// writeMu serializes whole frames; concurrent sends must never
	// interleave partial packets on the wire.
	writeMu sync.Mutex
}

func newSession(conn transport.Conn, env *envelope.Envelope, cfg Config) *session {
	return &session{
		conn:       conn,
		env:        env,
		maxPayload: cfg.MaxPayloadBytes,
		obs:        cfg.Observer,
	}
}

// send seals payload and writes one complete frame.
func (s *session) send(msgType uint8, payload []byte) error {
	token, err := s.env.Seal(payload)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := protocol.WritePacket(s.conn, msgType, token); err != nil {
		return err
	}
	s.obs.MessageSent(msgType, len(token))
	logutil.Debug("sent message type %d, %d token bytes", msgType, len(token))
	return nil
}

// receive reads frames until the stream fails. Integrity and decryption
// failures are per-message: the frame is dropped and the loop continues.
// The returned error is never nil and describes why the session ended.
func (s *session) receive(h Handler) error {
	for {
		msgType, token, err := protocol.ReadPacket(s.conn, s.maxPayload)
		if errors.Is(err, protocol.ErrIntegrityMismatch) {
			// Wire corruption: the frame is consumed, keep the session.
			logutil.Warning("dropping message: %v", err)
			s.obs.IntegrityFailure()
			continue
		}
		if err != nil {
			if errors.Is(err, netio.ErrTruncated) {
				// Peer died inside a frame; noisier than a clean close.
				logutil.Warning("session ended: %v", err)
			} else {
				logutil.Debug("session ended: %v", err)
			}
			return err
		}
		plain, err := s.env.Open(token)
		if err != nil {
			// Wrong or rotated key, or tampering. Distinct from wire
			// corruption above.
			logutil.Warning("dropping message type %d: %v", msgType, err)
			s.obs.DecryptFailure()
			continue
		}
		s.obs.MessageReceived(msgType, len(plain))
		h.OnMessage(msgType, plain)
	}
}

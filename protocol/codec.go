package protocol

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
)

var (
	ErrMalformedHeader   = errors.New("malformed header")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrIntegrityMismatch = errors.New("payload hash mismatch")
)

// Encode builds a complete wire packet: header plus payload. An empty
// payload is legal and carries the digest of zero bytes.
func Encode(msgType uint8, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = msgType
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(payload)))
	sum := sha256.Sum256(payload)
	copy(buf[5:HeaderSize], sum[:])
	copy(buf[HeaderSize:], payload)
	return buf
}

// DecodeHeader parses the fixed-size header. It fails with
// ErrMalformedHeader when fewer than HeaderSize bytes are supplied.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrMalformedHeader
	}
	h := Header{
		Type:   b[0],
		Length: binary.BigEndian.Uint32(b[1:5]),
	}
	copy(h.Sum[:], b[5:HeaderSize])
	return h, nil
}

// VerifyPayload reports whether payload hashes to sum. The comparison
// covers the full 32 bytes.
func VerifyPayload(payload []byte, sum [32]byte) bool {
	got := sha256.Sum256(payload)
	return subtle.ConstantTimeCompare(got[:], sum[:]) == 1
}

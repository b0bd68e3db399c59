// Package protocol defines the fixed wire format shared by both peers:
// a 37-byte big-endian header followed by the payload.
//
// Header layout:
//
//	byte 0     message type (uint8)
//	bytes 1-4  payload length (uint32)
//	bytes 5-36 SHA-256 digest of the payload
package protocol

// Message type constants. The payload is opaque to the transport; these
// tags only tell the receiving application how to interpret it.
const (
	TypeText   uint8 = 0x01
	TypeImage  uint8 = 0x02
	TypeFile   uint8 = 0x03
	TypeSystem uint8 = 0xFF
)

// HeaderSize is the fixed header size: Type(1) + Length(4) + SHA-256(32).
const HeaderSize = 1 + 4 + 32

// DefaultMaxPayload bounds payload length before any buffer is allocated.
const DefaultMaxPayload = 10 << 20

// Header is the decoded fixed-size packet header.
type Header struct {
	Type   uint8
	Length uint32
	Sum    [32]byte
}

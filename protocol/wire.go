package protocol

import (
	"fmt"
	"io"

	"github.com/ghostlink/ghostlink/internal/netio"
)

// WritePacket frames payload and writes the packet to w in full.
func WritePacket(w io.Writer, msgType uint8, payload []byte) error {
	return netio.WriteAll(w, Encode(msgType, payload))
}

// ReadPacket reads one full packet from r. maxPayload bounds the declared
// length; zero or negative selects DefaultMaxPayload. A declared length
// over the bound is rejected with ErrPayloadTooLarge before any payload
// buffer is allocated.
//
// On ErrIntegrityMismatch the frame has been fully consumed, so the caller
// may keep reading the stream; every other error means the stream is
// closed or desynchronized and the session must end.
func ReadPacket(r io.Reader, maxPayload int) (msgType uint8, payload []byte, err error) {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	headerBytes, err := netio.ReadExact(r, HeaderSize)
	if err != nil {
		return 0, nil, err
	}
	h, err := DecodeHeader(headerBytes)
	if err != nil {
		return 0, nil, err
	}
	if h.Length > uint32(maxPayload) {
		return 0, nil, fmt.Errorf("%w: %d bytes declared, max %d", ErrPayloadTooLarge, h.Length, maxPayload)
	}
	payload, err = netio.ReadExact(r, int(h.Length))
	if err != nil {
		return 0, nil, err
	}
	if !VerifyPayload(payload, h.Sum) {
		return 0, nil, ErrIntegrityMismatch
	}
	return h.Type, payload, nil
}

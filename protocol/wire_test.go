package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/ghostlink/ghostlink/internal/netio"
)

// countingReader fails the test if more than limit bytes are consumed.
type countingReader struct {
	t     *testing.T
	r     io.Reader
	n     int
	limit int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	if c.n > c.limit {
		c.t.Fatalf("read %d bytes, limit %d", c.n, c.limit)
	}
	return n, err
}

func TestWriteReadPacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePacket(&buf, TypeFile, []byte("payload bytes")); err != nil {
		t.Fatalf("WritePacket failed: %v", err)
	}
	msgType, payload, err := ReadPacket(&buf, 0)
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if msgType != TypeFile || string(payload) != "payload bytes" {
		t.Fatalf("got (%d, %q)", msgType, payload)
	}
}

func TestReadPacketEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePacket(&buf, TypeSystem, nil); err != nil {
		t.Fatalf("WritePacket failed: %v", err)
	}
	msgType, payload, err := ReadPacket(&buf, 0)
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if msgType != TypeSystem || len(payload) != 0 {
		t.Fatalf("got (%d, %d bytes)", msgType, len(payload))
	}
}

func TestReadPacketRejectsOversizeBeforeReading(t *testing.T) {
	header := make([]byte, HeaderSize)
	header[0] = TypeText
	binary.BigEndian.PutUint32(header[1:5], 1<<30) // way over any sane bound
	// Only the header is readable; consuming payload bytes would fail the
	// counting reader, proving rejection happens before the read.
	r := &countingReader{t: t, r: bytes.NewReader(header), n: 0, limit: HeaderSize}
	_, _, err := ReadPacket(r, 1024)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestReadPacketIntegrityMismatchConsumesFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePacket(&buf, TypeText, []byte("first")); err != nil {
		t.Fatalf("WritePacket failed: %v", err)
	}
	if err := WritePacket(&buf, TypeText, []byte("second")); err != nil {
		t.Fatalf("WritePacket failed: %v", err)
	}

	// Corrupt one payload byte of the first frame, header digest untouched.
	wire := buf.Bytes()
	wire[HeaderSize] ^= 0x01

	r := bytes.NewReader(wire)
	_, _, err := ReadPacket(r, 0)
	if !errors.Is(err, ErrIntegrityMismatch) {
		t.Fatalf("expected ErrIntegrityMismatch, got %v", err)
	}

	// The corrupt frame was fully consumed; the next frame decodes cleanly.
	msgType, payload, err := ReadPacket(r, 0)
	if err != nil {
		t.Fatalf("second ReadPacket failed: %v", err)
	}
	if msgType != TypeText || string(payload) != "second" {
		t.Fatalf("got (%d, %q)", msgType, payload)
	}
}

func TestReadPacketTruncatedPayload(t *testing.T) {
	pkt := Encode(TypeText, []byte("cut short"))
	r := bytes.NewReader(pkt[:len(pkt)-3])
	_, _, err := ReadPacket(r, 0)
	if !errors.Is(err, netio.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestReadPacketClosedBeforeHeader(t *testing.T) {
	_, _, err := ReadPacket(bytes.NewReader(nil), 0)
	if !errors.Is(err, netio.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

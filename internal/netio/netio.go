// Package netio provides full-read/full-write primitives over blocking
// byte streams. A single Read or Write syscall is never assumed to move
// the full requested count.
package netio

import (
	"errors"
	"fmt"
	"io"
)

// ReadChunkSize bounds the size of a single read from the stream.
const ReadChunkSize = 4096

var (
	// ErrClosed indicates the stream closed or failed before any byte of
	// the requested range was read, or during a write.
	ErrClosed = errors.New("connection closed")

	// ErrTruncated indicates the stream closed after some, but not all,
	// of the requested bytes arrived. It matches ErrClosed via errors.Is;
	// callers that care log it separately since a mid-frame close usually
	// means the peer died inside a packet.
	ErrTruncated = fmt.Errorf("stream closed mid-read: %w", ErrClosed)
)

// ReadExact reads exactly n bytes from r, looping bounded chunks until the
// count is satisfied. n of zero returns an empty slice without touching r.
func ReadExact(r io.Reader, n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	off := 0
	for off < n {
		chunk := n - off
		if chunk > ReadChunkSize {
			chunk = ReadChunkSize
		}
		m, err := r.Read(buf[off : off+chunk])
		off += m
		if err != nil {
			if off == 0 {
				if err == io.EOF {
					return nil, ErrClosed
				}
				return nil, fmt.Errorf("%w: %v", ErrClosed, err)
			}
			if off < n {
				return nil, fmt.Errorf("%w (%d of %d bytes)", ErrTruncated, off, n)
			}
		}
	}
	return buf, nil
}

// WriteAll writes b to w in full. Any I/O error, including a short write
// with a nil error, converts to ErrClosed.
func WriteAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		m, err := w.Write(b)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrClosed, err)
		}
		if m == 0 {
			return fmt.Errorf("%w: %v", ErrClosed, io.ErrShortWrite)
		}
		b = b[m:]
	}
	return nil
}

// ABOUTME: Growable line buffer for newline-framed stdio traffic
// ABOUTME: Doubles capacity on demand and hard-caps total growth

package mcp

import (
	"bytes"
	"errors"
	"fmt"
)

const (
	readBufferInitialSize = 64 * 1024
	readBufferMaxSize     = 10 * 1024 * 1024
)

// errBufferFull means a single line exceeded the buffer cap. The session
// treats it as fatal since the stream can never resynchronize.
var errBufferFull = errors.New("message exceeds buffer limit")

// readBuffer accumulates raw stdin bytes and yields complete
// newline-terminated lines. Not safe for concurrent use.
type readBuffer struct {
	buf  []byte
	used int
}

func newReadBuffer() *readBuffer {
	return &readBuffer{buf: make([]byte, readBufferInitialSize)}
}

// Append copies data into the buffer, doubling capacity as needed up to
// the cap.
func (b *readBuffer) Append(data []byte) error {
	need := b.used + len(data)
	if need > readBufferMaxSize {
		return fmt.Errorf("%w: %d bytes", errBufferFull, need)
	}
	if need > len(b.buf) {
		size := len(b.buf)
		if size == 0 {
			size = readBufferInitialSize
		}
		for size < need {
			size *= 2
		}
		if size > readBufferMaxSize {
			size = readBufferMaxSize
		}
		grown := make([]byte, size)
		copy(grown, b.buf[:b.used])
		b.buf = grown
	}
	copy(b.buf[b.used:], data)
	b.used += len(data)
	return nil
}

// NextLine extracts the next complete line, excluding the newline, and
// compacts the remainder to the front of the buffer. Returns nil when no
// complete line is buffered. The returned slice is a copy and stays valid
// across later calls.
func (b *readBuffer) NextLine() []byte {
	idx := bytes.IndexByte(b.buf[:b.used], '\n')
	if idx < 0 {
		return nil
	}
	line := make([]byte, idx)
	copy(line, b.buf[:idx])
	rest := b.used - idx - 1
	copy(b.buf, b.buf[idx+1:b.used])
	b.used = rest
	return line
}

// Len reports the number of buffered bytes awaiting a newline.
func (b *readBuffer) Len() int {
	return b.used
}

package session

import "sync"

// Buffer is a thread-safe circular buffer holding the most recent output of
// a session.
type Buffer struct {
	data []byte
	size int
	head int
	tail int
	full bool
	mu   sync.RWMutex
}

// NewBuffer creates a new circular buffer
func NewBuffer(size int) *Buffer {
	return &Buffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write appends p, overwriting the oldest bytes once the buffer is full.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(p) >= b.size {
		copy(b.data, p[len(p)-b.size:])
		b.head, b.tail, b.full = 0, 0, true
		return len(p), nil
	}
	for _, c := range p {
		b.data[b.tail] = c
		b.tail = (b.tail + 1) % b.size
		if b.full {
			b.head = b.tail
		} else if b.tail == b.head {
			b.full = true
		}
	}
	return len(p), nil
}

// Bytes returns a copy of the buffered data, oldest first.
func (b *Buffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.full && b.head == b.tail {
		return []byte{}
	}
	if b.tail > b.head {
		out := make([]byte, b.tail-b.head)
		copy(out, b.data[b.head:b.tail])
		return out
	}
	// wrapped
	out := make([]byte, 0, b.size-b.head+b.tail)
	out = append(out, b.data[b.head:]...)
	return append(out, b.data[:b.tail]...)
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	switch {
	case b.full:
		return b.size
	case b.tail >= b.head:
		return b.tail - b.head
	default:
		return b.size - b.head + b.tail
	}
}

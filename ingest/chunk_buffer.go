package ingest

import (
	"io"
	"sync"
	"time"
)

// ChunkBuffer is the append-only payload stored under one cache key.
type ChunkBuffer struct {
	mu      sync.Mutex
	data    []byte
	evicted bool

	receivedAt time.Time
	maxAge     time.Duration
}

func newChunkBuffer(receivedAt time.Time, maxAge time.Duration) *ChunkBuffer {
	return &ChunkBuffer{
		receivedAt: receivedAt,
		maxAge:     maxAge,
	}
}

// append adds p to the buffer. It reports false when the buffer was evicted
// from its store, in which case nothing is written.
func (b *ChunkBuffer) append(p []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.evicted {
		return false
	}
	b.data = append(b.data, p...)
	return true
}

// Bytes returns a copy of the buffered payload.
func (b *ChunkBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

func (b *ChunkBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.data)
}

// WriteTo writes the buffered payload to w while holding the buffer lock,
// so the output never interleaves with a concurrent append.
func (b *ChunkBuffer) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, err := w.Write(b.data)
	return int64(n), err
}

func (b *ChunkBuffer) ReceivedAt() time.Time {
	return b.receivedAt
}

func (b *ChunkBuffer) MaxAge() time.Duration {
	return b.maxAge
}

func (b *ChunkBuffer) ExpiresAt() time.Time {
	return b.receivedAt.Add(b.maxAge)
}

// evictIfExpired marks the buffer evicted when its lifetime has elapsed at now.
func (b *ChunkBuffer) evictIfExpired(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Before(b.ExpiresAt()) {
		return false
	}
	b.evicted = true
	return true
}

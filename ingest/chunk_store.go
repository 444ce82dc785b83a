package ingest

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ChunkStore maps cache keys to chunk buffers for one session.
//
// Creating or removing an entry takes the store-wide lock. Appending to an
// existing buffer takes only that buffer's lock, so writers to different keys
// do not block each other once their entries exist.
type ChunkStore struct {
	mu      sync.Mutex
	buffers map[string]*ChunkBuffer

	now func() time.Time
}

func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		buffers: make(map[string]*ChunkBuffer),
		now:     time.Now,
	}
}

// CreateOrGet returns the buffer for key, creating it with maxAge when absent.
// When several callers race on a missing key, the first one creates the
// buffer and fixes its lifetime; every other caller receives that same buffer
// with created set to false.
func (s *ChunkStore) CreateOrGet(key string, maxAge time.Duration) (buf *ChunkBuffer, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if buf, ok := s.buffers[key]; ok {
		return buf, false
	}

	buf = newChunkBuffer(s.now(), maxAge)
	s.buffers[key] = buf
	return buf, true
}

// Append appends p to the buffer for key, creating the buffer when needed.
// If the buffer is evicted between lookup and append, a fresh buffer is created.
func (s *ChunkStore) Append(key string, maxAge time.Duration, p []byte) (created bool) {
	for {
		buf, ok := s.CreateOrGet(key, maxAge)
		if buf.append(p) {
			return ok
		}
	}
}

func (s *ChunkStore) Get(key string) (*ChunkBuffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.buffers[key]
	return buf, ok
}

func (s *ChunkStore) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.buffers[key]
	if !ok {
		return false
	}

	buf.mu.Lock()
	buf.evicted = true
	buf.mu.Unlock()

	delete(s.buffers, key)
	return true
}

func (s *ChunkStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.buffers)
}

// Keys returns the stored keys in lexical order.
func (s *ChunkStore) Keys() []string {
	s.mu.Lock()
	keys := make([]string, 0, len(s.buffers))
	for key := range s.buffers {
		keys = append(keys, key)
	}
	s.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// BufferInfo describes one stored buffer.
type BufferInfo struct {
	Key        string    `json:"key"`
	Size       int       `json:"size"`
	ReceivedAt time.Time `json:"received_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Snapshot describes every stored buffer, ordered by key.
func (s *ChunkStore) Snapshot() []BufferInfo {
	s.mu.Lock()
	infos := make([]BufferInfo, 0, len(s.buffers))
	for key, buf := range s.buffers {
		infos = append(infos, BufferInfo{
			Key:        key,
			Size:       buf.Len(),
			ReceivedAt: buf.ReceivedAt(),
			ExpiresAt:  buf.ExpiresAt(),
		})
	}
	s.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}

// Sweep removes every buffer whose lifetime has elapsed at now and returns
// the removed keys.
func (s *ChunkStore) Sweep(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []string
	for key, buf := range s.buffers {
		if buf.evictIfExpired(now) {
			delete(s.buffers, key)
			evicted = append(evicted, key)
		}
	}
	return evicted
}

// RunSweeper sweeps the store every interval until ctx is done.
// onEvict, if not nil, receives the keys removed by each non-empty sweep.
func (s *ChunkStore) RunSweeper(ctx context.Context, interval time.Duration, onEvict func(keys []string)) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := s.Sweep(s.now())
			if len(evicted) > 0 && onEvict != nil {
				onEvict(evicted)
			}
		}
	}
}

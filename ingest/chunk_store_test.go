package ingest

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(now time.Time) *ChunkStore {
	store := NewChunkStore()
	store.now = func() time.Time { return now }
	return store
}

func TestChunkStore_CreateOrGet(t *testing.T) {
	store := NewChunkStore()

	buf, created := store.CreateOrGet("cam1/video/init", 10*time.Second)
	require.NotNil(t, buf)
	assert.True(t, created)
	assert.Equal(t, 10*time.Second, buf.MaxAge())

	again, created := store.CreateOrGet("cam1/video/init", time.Hour)
	assert.False(t, created)
	assert.Same(t, buf, again)
	assert.Equal(t, 10*time.Second, again.MaxAge(), "first writer fixes the lifetime")
}

func TestChunkStore_CreateOrGetRace(t *testing.T) {
	store := NewChunkStore()

	const writers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		buffers = make(map[*ChunkBuffer]struct{})
	)

	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			buf, ok := store.CreateOrGet("cam1/audio/data", time.Duration(i+1)*time.Second)

			mu.Lock()
			defer mu.Unlock()
			if ok {
				created++
			}
			buffers[buf] = struct{}{}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, created, "exactly one writer creates the buffer")
	assert.Len(t, buffers, 1, "every writer observes the same buffer")
	assert.Equal(t, 1, store.Len())
}

func TestChunkStore_AppendOrdered(t *testing.T) {
	store := NewChunkStore()

	var want []byte
	for i := 0; i < 10; i++ {
		payload := []byte(fmt.Sprintf("fragment-%d;", i))
		want = append(want, payload...)
		store.Append("cam1/video/data", time.Minute, payload)
	}

	buf, ok := store.Get("cam1/video/data")
	require.True(t, ok)
	assert.Equal(t, want, buf.Bytes())
	assert.Equal(t, len(want), buf.Len())

	var out bytes.Buffer
	n, err := buf.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(len(want)), n)
	assert.Equal(t, want, out.Bytes())
}

func TestChunkStore_ConcurrentDistinctKeys(t *testing.T) {
	store := NewChunkStore()

	const keys = 16
	const appends = 100

	var wg sync.WaitGroup
	for k := 0; k < keys; k++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			key := fmt.Sprintf("asset%d/video/data", k)
			for i := 0; i < appends; i++ {
				store.Append(key, time.Minute, []byte{byte(k)})
			}
		}(k)
	}
	wg.Wait()

	require.Equal(t, keys, store.Len())
	for k := 0; k < keys; k++ {
		buf, ok := store.Get(fmt.Sprintf("asset%d/video/data", k))
		require.True(t, ok)
		assert.Equal(t, bytes.Repeat([]byte{byte(k)}, appends), buf.Bytes())
	}
}

func TestChunkStore_AppendDoesNotWaitForStoreLock(t *testing.T) {
	store := NewChunkStore()
	buf, _ := store.CreateOrGet("cam1/video/data", time.Minute)

	store.mu.Lock()
	defer store.mu.Unlock()

	done := make(chan struct{})
	go func() {
		buf.append([]byte("payload"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("append to an existing buffer blocked on the store lock")
	}
}

func TestChunkStore_Sweep(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newTestStore(base)

	store.Append("cam1/video/init", 10*time.Second, []byte("init"))
	store.Append("cam1/video/data", 60*time.Second, []byte("data"))

	assert.Empty(t, store.Sweep(base.Add(9*time.Second)))
	assert.Equal(t, 2, store.Len())

	evicted := store.Sweep(base.Add(10 * time.Second))
	assert.Equal(t, []string{"cam1/video/init"}, evicted)
	assert.Equal(t, []string{"cam1/video/data"}, store.Keys())

	_, ok := store.Get("cam1/video/init")
	assert.False(t, ok)
}

func TestChunkStore_AppendAfterEviction(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newTestStore(base)

	old, _ := store.CreateOrGet("cam1/audio/data", time.Second)
	store.Sweep(base.Add(time.Second))

	assert.False(t, old.append([]byte("late")), "evicted buffers reject appends")

	created := store.Append("cam1/audio/data", time.Second, []byte("fresh"))
	assert.True(t, created)

	buf, ok := store.Get("cam1/audio/data")
	require.True(t, ok)
	assert.NotSame(t, old, buf)
	assert.Equal(t, []byte("fresh"), buf.Bytes())
}

func TestChunkStore_Delete(t *testing.T) {
	store := NewChunkStore()
	buf, _ := store.CreateOrGet("cam1/video/data", time.Minute)

	assert.True(t, store.Delete("cam1/video/data"))
	assert.False(t, store.Delete("cam1/video/data"))
	assert.False(t, buf.append([]byte("x")))
	assert.Equal(t, 0, store.Len())
}

func TestChunkStore_Snapshot(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newTestStore(base)

	store.Append("b/video/data", time.Minute, []byte("abc"))
	store.Append("a/audio/init", time.Second, []byte("x"))

	infos := store.Snapshot()
	require.Len(t, infos, 2)
	assert.Equal(t, BufferInfo{
		Key:        "a/audio/init",
		Size:       1,
		ReceivedAt: base,
		ExpiresAt:  base.Add(time.Second),
	}, infos[0])
	assert.Equal(t, "b/video/data", infos[1].Key)
	assert.Equal(t, 3, infos[1].Size)
}

func TestChunkStore_RunSweeper(t *testing.T) {
	store := NewChunkStore()
	store.Append("cam1/video/init", 0, []byte("init"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evicted := make(chan []string, 1)
	go store.RunSweeper(ctx, 10*time.Millisecond, func(keys []string) {
		select {
		case evicted <- keys:
		default:
		}
	})

	select {
	case keys := <-evicted:
		assert.Equal(t, []string{"cam1/video/init"}, keys)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not evict the expired buffer")
	}
	assert.Equal(t, 0, store.Len())
}

func TestChunkStore_RunSweeperDisabled(t *testing.T) {
	store := NewChunkStore()

	done := make(chan struct{})
	go func() {
		store.RunSweeper(context.Background(), 0, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper with a zero interval should return immediately")
	}
}

package ingest

import (
	"sync"

	"github.com/majiix/wtingest/quic"
)

// connTable tracks the session budget of every QUIC connection being served.
// HTTP/3 requests carry only the peer address, so connections are keyed by it.
type connTable struct {
	mu      sync.Mutex
	entries map[string]*connEntry
}

type connEntry struct {
	conn   quic.Connection
	budget int

	reserved int // slots acquired and not yet upgraded
	consumed int // sessions established
	active   int // sessions still running
}

// exhausted reports whether the connection can carry no further sessions
// and has none running. Callers must hold the table lock.
func (e *connEntry) exhausted() bool {
	return e.consumed >= e.budget && e.reserved == 0 && e.active == 0
}

// sessionSlot is a reserved place for one session on a connection.
type sessionSlot struct {
	table *connTable
	entry *connEntry
}

func newConnTable() *connTable {
	return &connTable{
		entries: make(map[string]*connEntry),
	}
}

func (t *connTable) add(conn quic.Connection, budget int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[conn.RemoteAddr().String()] = &connEntry{
		conn:   conn,
		budget: budget,
	}
}

func (t *connTable) remove(conn quic.Connection) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := conn.RemoteAddr().String()
	if entry, ok := t.entries[key]; ok && entry.conn == conn {
		delete(t.entries, key)
	}
}

func (t *connTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}

// acquire reserves a session slot on the connection from remoteAddr.
// Requests from connections the table does not know are not limited.
func (t *connTable) acquire(remoteAddr string) (*sessionSlot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[remoteAddr]
	if !ok {
		return &sessionSlot{table: t}, nil
	}

	if entry.consumed+entry.reserved >= entry.budget {
		return nil, ErrSessionLimit
	}
	entry.reserved++

	return &sessionSlot{table: t, entry: entry}, nil
}

// abandon returns the slot without consuming it.
func (slot *sessionSlot) abandon() {
	if slot.entry == nil {
		return
	}

	slot.table.mu.Lock()
	defer slot.table.mu.Unlock()

	slot.entry.reserved--
}

// consume marks the slot as used by an established session.
func (slot *sessionSlot) consume() {
	if slot.entry == nil {
		return
	}

	slot.table.mu.Lock()
	defer slot.table.mu.Unlock()

	slot.entry.reserved--
	slot.entry.consumed++
	slot.entry.active++
}

// finish records the end of the slot's session. It returns the connection when
// its budget is used up and no session remains, and nil otherwise.
func (slot *sessionSlot) finish() quic.Connection {
	if slot.entry == nil {
		return nil
	}

	slot.table.mu.Lock()
	defer slot.table.mu.Unlock()

	slot.entry.active--
	if slot.entry.exhausted() {
		return slot.entry.conn
	}
	return nil
}

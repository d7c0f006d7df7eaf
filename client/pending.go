package client

import (
	"sync"

	"github.com/mixtools/tcnet/protocol"
)

// pendingKey identifies an outstanding request. At most one entry exists
// per key; concurrent callers for the same key coalesce onto it.
type pendingKey struct {
	nodeID   uint16
	dataType uint8
	layer    uint8
}

// pendingEntry is one in-flight request. It completes exactly once: the
// first of reply, error notification, eviction, or shutdown wins, and
// the entry leaves the table at that moment. Waiters that give up early
// (deadline, cancellation) detach; the last one out removes the entry so
// a late reply is routed to the event stream instead.
type pendingEntry struct {
	key       pendingKey
	done      chan struct{}
	packet    protocol.Packet
	err       error
	completed bool
	waiters   int
	frag      *fragmentAssembly
}

type pendingTable struct {
	mu      sync.Mutex
	entries map[pendingKey]*pendingEntry
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[pendingKey]*pendingEntry)}
}

// join returns the entry for key, creating it if absent. The second
// result reports whether the caller owns the on-wire send.
func (t *pendingTable) join(key pendingKey, fragmented bool) (*pendingEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		e.waiters++
		return e, false
	}
	e := &pendingEntry{
		key:     key,
		done:    make(chan struct{}),
		waiters: 1,
	}
	if fragmented {
		e.frag = newFragmentAssembly()
	}
	t.entries[key] = e
	return e, true
}

// leave detaches a waiter that gave up. When the last waiter leaves an
// uncompleted entry, the entry is dropped from the table.
func (t *pendingTable) leave(e *pendingEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e.waiters--
	if !e.completed && e.waiters <= 0 {
		delete(t.entries, e.key)
	}
}

func (t *pendingTable) completeLocked(e *pendingEntry, pkt protocol.Packet, err error) {
	if e.completed {
		return
	}
	e.completed = true
	e.packet = pkt
	e.err = err
	close(e.done)
	delete(t.entries, e.key)
}

// deliver hands a decoded Data packet to its pending entry. Waveform
// entries accumulate fragments and complete when the last one arrives.
// Reports whether the packet was consumed by a waiter.
func (t *pendingTable) deliver(key pendingKey, pkt protocol.Packet) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return false
	}
	if e.frag != nil {
		wf, isWf := pkt.(*protocol.WaveformPacket)
		if !isWf {
			return false
		}
		combined, done, err := e.frag.add(wf)
		if err != nil {
			t.completeLocked(e, nil, err)
			return true
		}
		if done {
			t.completeLocked(e, combined, nil)
		}
		return true
	}
	t.completeLocked(e, pkt, nil)
	return true
}

// fail completes the entry for key with err. Reports whether an entry
// was pending.
func (t *pendingTable) fail(key pendingKey, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return false
	}
	t.completeLocked(e, nil, err)
	return true
}

// failPeer completes every entry addressed to nodeID with err.
func (t *pendingTable) failPeer(nodeID uint16, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if e.key.nodeID == nodeID {
			t.completeLocked(e, nil, err)
		}
	}
}

// failAll completes every outstanding entry with err.
func (t *pendingTable) failAll(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		t.completeLocked(e, nil, err)
	}
}

func (t *pendingTable) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

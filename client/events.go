package client

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/mixtools/tcnet/protocol"
	"github.com/rs/zerolog"
)

// EventType selects which telemetry a subscriber receives.
type EventType int

const (
	// EventBroadcast is any decoded packet from the discovery port.
	EventBroadcast EventType = iota
	// EventUnicast is a decoded unicast packet that matched no pending
	// request.
	EventUnicast
	// EventPeerAdded fires when a node opts in for the first time.
	EventPeerAdded
	// EventPeerRemoved fires on opt-out or idle eviction.
	EventPeerRemoved
)

// Event is one item of the telemetry stream. Packet is set for packet
// events, Peer for membership events.
type Event struct {
	Type   EventType
	Packet protocol.Packet
	Peer   *Peer
	Source *net.UDPAddr
}

type subscriber struct {
	ch    chan Event
	kinds map[EventType]bool // nil means all
}

func (s *subscriber) wants(t EventType) bool {
	return s.kinds == nil || s.kinds[t]
}

// eventHub fans events out to subscribers. Delivery is best-effort: a
// full subscriber channel drops the event rather than blocking a
// receive loop.
type eventHub struct {
	mu      sync.Mutex
	subs    map[int]*subscriber
	nextID  int
	closed  bool
	dropped atomic.Uint64
	logger  zerolog.Logger
}

func newEventHub(logger zerolog.Logger) *eventHub {
	return &eventHub{
		subs:   make(map[int]*subscriber),
		logger: logger.With().Str("com", "events").Logger(),
	}
}

// subscribe registers a buffered subscription for the given event types
// (all types when none are named). The returned cancel function is
// idempotent and closes the channel.
func (h *eventHub) subscribe(buffer int, kinds ...EventType) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	var filter map[EventType]bool
	if len(kinds) > 0 {
		filter = make(map[EventType]bool, len(kinds))
		for _, k := range kinds {
			filter[k] = true
		}
	}
	sub := &subscriber{ch: make(chan Event, buffer), kinds: filter}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub.ch)
			}
		})
	}
}

// publish offers the event to every matching subscriber without blocking.
func (h *eventHub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, sub := range h.subs {
		if !sub.wants(ev.Type) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			if n := h.dropped.Add(1); n%1000 == 1 {
				h.logger.Debug().Uint64("dropped", n).Msg("slow subscriber, dropping events")
			}
		}
	}
}

// close drains the hub: all subscriber channels are closed and further
// publishes are discarded.
func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Dropped reports how many events were discarded due to slow subscribers.
func (h *eventHub) Dropped() uint64 {
	return h.dropped.Load()
}

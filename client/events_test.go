package client

import (
	"testing"

	"github.com/mixtools/tcnet/protocol"
	"github.com/rs/zerolog"
)

func TestEventHub_FanOut(t *testing.T) {
	hub := newEventHub(zerolog.Nop())
	a, cancelA := hub.subscribe(4)
	b, cancelB := hub.subscribe(4)
	defer cancelA()
	defer cancelB()

	hub.publish(Event{Type: EventBroadcast, Packet: &protocol.StatusPacket{}})

	for _, ch := range []<-chan Event{a, b} {
		ev := <-ch
		if ev.Type != EventBroadcast {
			t.Errorf("event type = %d", ev.Type)
		}
	}
}

func TestEventHub_KindFilter(t *testing.T) {
	hub := newEventHub(zerolog.Nop())
	ch, cancel := hub.subscribe(4, EventPeerAdded)
	defer cancel()

	hub.publish(Event{Type: EventBroadcast})
	hub.publish(Event{Type: EventPeerAdded, Peer: &Peer{NodeID: 7}})

	ev := <-ch
	if ev.Type != EventPeerAdded || ev.Peer.NodeID != 7 {
		t.Errorf("event = %+v", ev)
	}
	select {
	case ev := <-ch:
		t.Errorf("unexpected extra event %+v", ev)
	default:
	}
}

func TestEventHub_SlowSubscriberDropsWithoutBlocking(t *testing.T) {
	hub := newEventHub(zerolog.Nop())
	ch, cancel := hub.subscribe(1)
	defer cancel()

	// Nobody reads ch; publishing must not block.
	for i := 0; i < 10; i++ {
		hub.publish(Event{Type: EventBroadcast})
	}
	if hub.Dropped() != 9 {
		t.Errorf("dropped = %d, want 9", hub.Dropped())
	}
	<-ch // the one buffered event is still delivered
}

func TestEventHub_CancelIsIdempotent(t *testing.T) {
	hub := newEventHub(zerolog.Nop())
	ch, cancel := hub.subscribe(1)
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	// Publishing to a hub with no subscribers is a no-op.
	hub.publish(Event{Type: EventBroadcast})
}

func TestEventHub_CloseDrainsSubscribers(t *testing.T) {
	hub := newEventHub(zerolog.Nop())
	ch, cancel := hub.subscribe(1)
	defer cancel()

	hub.close()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
	// Late subscriptions on a closed hub get a closed channel.
	late, _ := hub.subscribe(1)
	if _, ok := <-late; ok {
		t.Error("late subscription should be closed immediately")
	}
}

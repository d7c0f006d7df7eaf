package client

import (
	"errors"
	"testing"

	"github.com/mixtools/tcnet/protocol"
)

func metricsReply(nodeID uint16, layer uint8) *protocol.MetricsPacket {
	return &protocol.MetricsPacket{
		Header:  protocol.Header{NodeID: nodeID, MessageType: protocol.MsgTypeData},
		LayerID: layer,
		BPM:     12800,
	}
}

func TestPendingTable_DeliverCompletesOnce(t *testing.T) {
	table := newPendingTable()
	key := pendingKey{nodeID: 7, dataType: protocol.DataTypeMetrics, layer: 2}

	entry, isNew := table.join(key, false)
	if !isNew {
		t.Fatal("first join should own the send")
	}

	reply := metricsReply(7, 2)
	if !table.deliver(key, reply) {
		t.Fatal("deliver should match the pending entry")
	}
	// A second matching packet has nothing to complete.
	if table.deliver(key, metricsReply(7, 2)) {
		t.Error("second deliver should not match")
	}

	<-entry.done
	if entry.err != nil {
		t.Fatalf("entry completed with error: %v", entry.err)
	}
	if entry.packet != protocol.Packet(reply) {
		t.Error("entry holds the wrong packet")
	}
	if table.count() != 0 {
		t.Errorf("table still holds %d entries", table.count())
	}
}

func TestPendingTable_Coalesce(t *testing.T) {
	table := newPendingTable()
	key := pendingKey{nodeID: 7, dataType: protocol.DataTypeMetrics, layer: 2}

	first, isNew := table.join(key, false)
	if !isNew {
		t.Fatal("first join should be new")
	}
	second, isNew := table.join(key, false)
	if isNew {
		t.Fatal("second join must coalesce, not create")
	}
	if first != second {
		t.Fatal("coalesced joins must share one entry")
	}
	if table.count() != 1 {
		t.Fatalf("table holds %d entries, want 1", table.count())
	}

	table.deliver(key, metricsReply(7, 2))
	<-first.done
	<-second.done
}

func TestPendingTable_LastWaiterLeaving_RemovesEntry(t *testing.T) {
	table := newPendingTable()
	key := pendingKey{nodeID: 7, dataType: protocol.DataTypeMetrics, layer: 2}

	entry, _ := table.join(key, false)
	second, _ := table.join(key, false)
	_ = second

	table.leave(entry)
	if table.count() != 1 {
		t.Fatal("entry must survive while a waiter remains")
	}
	table.leave(entry)
	if table.count() != 0 {
		t.Fatal("entry must be dropped when the last waiter leaves")
	}

	// A late reply now matches nothing.
	if table.deliver(key, metricsReply(7, 2)) {
		t.Error("late reply should not match a removed entry")
	}
}

func TestPendingTable_Fail(t *testing.T) {
	table := newPendingTable()
	key := pendingKey{nodeID: 7, dataType: protocol.DataTypeMetrics, layer: 2}

	entry, _ := table.join(key, false)
	remote := &protocol.RemoteError{Code: protocol.ErrCodeRequestDataEmpty, DataType: 2, LayerID: 2}
	if !table.fail(key, remote) {
		t.Fatal("fail should match the pending entry")
	}
	<-entry.done
	var gotRemote *protocol.RemoteError
	if !errors.As(entry.err, &gotRemote) || gotRemote.Code != protocol.ErrCodeRequestDataEmpty {
		t.Fatalf("entry error = %v", entry.err)
	}
}

func TestPendingTable_FailPeer(t *testing.T) {
	table := newPendingTable()
	a, _ := table.join(pendingKey{nodeID: 7, dataType: 2, layer: 1}, false)
	b, _ := table.join(pendingKey{nodeID: 7, dataType: 4, layer: 2}, false)
	other, _ := table.join(pendingKey{nodeID: 9, dataType: 2, layer: 1}, false)

	table.failPeer(7, ErrPeerGone)
	<-a.done
	<-b.done
	if !errors.Is(a.err, ErrPeerGone) || !errors.Is(b.err, ErrPeerGone) {
		t.Errorf("peer entries = %v / %v", a.err, b.err)
	}
	select {
	case <-other.done:
		t.Error("entry for another peer must not complete")
	default:
	}
	if table.count() != 1 {
		t.Errorf("table holds %d entries, want 1", table.count())
	}
}

func TestPendingTable_FailAll(t *testing.T) {
	table := newPendingTable()
	a, _ := table.join(pendingKey{nodeID: 1, dataType: 2, layer: 1}, false)
	b, _ := table.join(pendingKey{nodeID: 2, dataType: 4, layer: 2}, false)

	table.failAll(ErrShutdown)
	<-a.done
	<-b.done
	if !errors.Is(a.err, ErrShutdown) || !errors.Is(b.err, ErrShutdown) {
		t.Errorf("entries = %v / %v", a.err, b.err)
	}
	if table.count() != 0 {
		t.Errorf("table holds %d entries", table.count())
	}
}

func TestPendingTable_WaveformEntryIgnoresOtherPackets(t *testing.T) {
	table := newPendingTable()
	key := pendingKey{nodeID: 7, dataType: protocol.DataTypeSmallWaveform, layer: 1}
	entry, _ := table.join(key, true)

	if table.deliver(key, metricsReply(7, 1)) {
		t.Error("non-waveform packet must not complete a waveform entry")
	}
	select {
	case <-entry.done:
		t.Error("entry must still be pending")
	default:
	}
}

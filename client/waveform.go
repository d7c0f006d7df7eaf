package client

import (
	"errors"

	"github.com/mixtools/tcnet/protocol"
)

var errFragmentIndex = errors.New("fragment index out of range")

// fragmentAssembly collects the fragments of a waveform reply. The first
// fragment fixes the expected count; slots are addressed by packet
// number, so arrival order does not matter and duplicates are ignored.
type fragmentAssembly struct {
	first    *protocol.WaveformPacket
	parts    [][]byte
	received uint32
}

func newFragmentAssembly() *fragmentAssembly {
	return &fragmentAssembly{}
}

// add stores one fragment. Returns the reassembled packet once all
// fragments are present.
func (a *fragmentAssembly) add(pkt *protocol.WaveformPacket) (*protocol.WaveformPacket, bool, error) {
	total := pkt.TotalPacket
	if total <= 1 {
		return pkt, true, nil
	}
	if a.first == nil {
		a.first = pkt
		a.parts = make([][]byte, total)
	}
	if pkt.PacketNumber >= uint32(len(a.parts)) {
		return nil, false, errFragmentIndex
	}
	if a.parts[pkt.PacketNumber] == nil {
		a.parts[pkt.PacketNumber] = pkt.Data
		a.received++
	}
	if a.received < uint32(len(a.parts)) {
		return nil, false, nil
	}

	size := 0
	for _, part := range a.parts {
		size += len(part)
	}
	data := make([]byte, 0, size)
	for _, part := range a.parts {
		data = append(data, part...)
	}
	combined := &protocol.WaveformPacket{
		Header:      a.first.Header,
		SubType:     a.first.SubType,
		LayerID:     a.first.LayerID,
		DataSize:    a.first.DataSize,
		TotalPacket: a.first.TotalPacket,
		Data:        data,
	}
	return combined, true, nil
}

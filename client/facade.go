package client

import (
	"context"
	"fmt"

	"github.com/mixtools/tcnet/protocol"
)

// WaveformSize selects the waveform resolution to request.
type WaveformSize uint8

const (
	WaveformSmall = WaveformSize(protocol.DataTypeSmallWaveform)
	WaveformBig   = WaveformSize(protocol.DataTypeBigWaveform)
)

// TrackInfo is the loaded track's metadata for one layer.
type TrackInfo struct {
	TrackTitle  string
	TrackArtist string
	TrackKey    uint16
	TrackID     uint32
}

// LayerMetrics is the live playback state of one layer. BPM keeps the
// wire scaling of beats per minute x100; times are milliseconds.
type LayerMetrics struct {
	BPM             uint32
	State           uint8
	CurrentPosition uint32
	TrackLength     uint32
	BeatNumber      uint32
	Speed           uint32
	PitchBend       uint16
	TrackID         uint32
}

// Waveform is a reassembled waveform payload for one layer.
type Waveform struct {
	LayerID uint8
	Size    WaveformSize
	Samples []protocol.WaveformSample
}

// pickPeer selects the default request target: the first master on the
// segment, falling back to any peer.
func (c *Client) pickPeer() (Peer, error) {
	if err := c.sessionErr(); err != nil {
		return Peer{}, err
	}
	peer, ok := c.peers.pick()
	if !ok {
		return Peer{}, ErrNoPeer
	}
	return peer, nil
}

// request performs a façade call against the default peer.
func (c *Client) request(ctx context.Context, dataType, layer uint8) (protocol.Packet, error) {
	peer, err := c.pickPeer()
	if err != nil {
		return nil, &RequestError{DataType: dataType, Layer: layer, Err: err}
	}
	return c.RequestData(ctx, peer.NodeID, dataType, layer)
}

// TrackInfo fetches the track metadata of a layer from the default peer.
func (c *Client) TrackInfo(ctx context.Context, layer uint8) (*TrackInfo, error) {
	pkt, err := c.request(ctx, protocol.DataTypeMetadata, layer)
	if err != nil {
		return nil, err
	}
	md, ok := pkt.(*protocol.MetadataPacket)
	if !ok {
		return nil, fmt.Errorf("unexpected reply %T: %w", pkt, protocol.ErrUnsupported)
	}
	return &TrackInfo{
		TrackTitle:  md.TrackTitle,
		TrackArtist: md.TrackArtist,
		TrackKey:    md.TrackKey,
		TrackID:     md.TrackID,
	}, nil
}

// LayerMetrics fetches the playback metrics of a layer from the default
// peer.
func (c *Client) LayerMetrics(ctx context.Context, layer uint8) (*LayerMetrics, error) {
	pkt, err := c.request(ctx, protocol.DataTypeMetrics, layer)
	if err != nil {
		return nil, err
	}
	m, ok := pkt.(*protocol.MetricsPacket)
	if !ok {
		return nil, fmt.Errorf("unexpected reply %T: %w", pkt, protocol.ErrUnsupported)
	}
	return &LayerMetrics{
		BPM:             m.BPM,
		State:           m.State,
		CurrentPosition: m.CurrentPosition,
		TrackLength:     m.TrackLength,
		BeatNumber:      m.BeatNumber,
		Speed:           m.Speed,
		PitchBend:       m.PitchBend,
		TrackID:         m.TrackID,
	}, nil
}

// CueData fetches the cue point table of a layer from the default peer.
func (c *Client) CueData(ctx context.Context, layer uint8) (*protocol.CueDataPacket, error) {
	pkt, err := c.request(ctx, protocol.DataTypeCue, layer)
	if err != nil {
		return nil, err
	}
	cue, ok := pkt.(*protocol.CueDataPacket)
	if !ok {
		return nil, fmt.Errorf("unexpected reply %T: %w", pkt, protocol.ErrUnsupported)
	}
	return cue, nil
}

// MixerState fetches the mixer record from the default peer.
func (c *Client) MixerState(ctx context.Context) (*protocol.MixerPacket, error) {
	pkt, err := c.request(ctx, protocol.DataTypeMixer, 0)
	if err != nil {
		return nil, err
	}
	mixer, ok := pkt.(*protocol.MixerPacket)
	if !ok {
		return nil, fmt.Errorf("unexpected reply %T: %w", pkt, protocol.ErrUnsupported)
	}
	return mixer, nil
}

// Waveform fetches and reassembles a layer's waveform from the default
// peer. Fragmented replies are accumulated until complete; missing
// fragments surface as a timeout.
func (c *Client) Waveform(ctx context.Context, layer uint8, size WaveformSize) (*Waveform, error) {
	pkt, err := c.request(ctx, uint8(size), layer)
	if err != nil {
		return nil, err
	}
	wf, ok := pkt.(*protocol.WaveformPacket)
	if !ok {
		return nil, fmt.Errorf("unexpected reply %T: %w", pkt, protocol.ErrUnsupported)
	}
	return &Waveform{
		LayerID: wf.LayerID,
		Size:    WaveformSize(wf.SubType),
		Samples: wf.Samples(),
	}, nil
}

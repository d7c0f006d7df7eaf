package protocol

import "fmt"

// Data packet sub-type codes, offset 24 of any Data (200) packet.
const (
	DataTypeMetrics       = 2
	DataTypeMetadata      = 4
	DataTypeBeatGrid      = 8
	DataTypeCue           = 12
	DataTypeSmallWaveform = 16
	DataTypeBigWaveform   = 32
	DataTypeMixer         = 150
)

// Fixed on-wire sizes per data sub-type.
const (
	MetricsLength       = 122
	MetadataLength      = 548
	CueDataLength       = 436
	SmallWaveformLength = 2442
	BigWaveformLength   = 4884
	MixerLength         = 548

	waveformSampleOffset = 42
	metadataFieldBytes   = 256
	cueCount             = 18
	cueStride            = 22
	mixerChannelCount    = 6
	mixerChannelStride   = 24
)

// MetricsPacket reports the live playback state of a layer. BPM is
// scaled by 100 on the wire.
type MetricsPacket struct {
	Header
	LayerID         uint8
	State           uint8
	SyncMaster      uint8
	BeatMarker      uint8
	TrackLength     uint32 // ms
	CurrentPosition uint32 // ms
	Speed           uint32
	BeatNumber      uint32
	BPM             uint32 // beats per minute x100
	PitchBend       uint16
	TrackID         uint32
}

func decodeMetrics(h Header, b []byte) (*MetricsPacket, error) {
	if len(b) < MetricsLength {
		return nil, fmt.Errorf("metrics: %d bytes: %w", len(b), ErrTruncated)
	}
	return &MetricsPacket{
		Header:          h,
		LayerID:         u8(b, 25),
		State:           u8(b, 27),
		SyncMaster:      u8(b, 29),
		BeatMarker:      u8(b, 31),
		TrackLength:     u32(b, 32),
		CurrentPosition: u32(b, 36),
		Speed:           u32(b, 40),
		BeatNumber:      u32(b, 57),
		BPM:             u32(b, 112),
		PitchBend:       u16(b, 116),
		TrackID:         u32(b, 118),
	}, nil
}

func (p *MetricsPacket) Encode() []byte {
	b := make([]byte, MetricsLength)
	p.Header.MessageType = MsgTypeData
	p.Header.encode(b)
	b[24] = DataTypeMetrics
	b[25] = p.LayerID
	b[27] = p.State
	b[29] = p.SyncMaster
	b[31] = p.BeatMarker
	putU32(b, 32, p.TrackLength)
	putU32(b, 36, p.CurrentPosition)
	putU32(b, 40, p.Speed)
	putU32(b, 57, p.BeatNumber)
	putU32(b, 112, p.BPM)
	putU16(b, 116, p.PitchBend)
	putU32(b, 118, p.TrackID)
	return b
}

// MetadataPacket carries the loaded track's artist and title, each a
// fixed 256 byte UTF-16LE field.
type MetadataPacket struct {
	Header
	LayerID     uint8
	TrackArtist string
	TrackTitle  string
	TrackKey    uint16
	TrackID     uint32
}

func decodeMetadata(h Header, b []byte) (*MetadataPacket, error) {
	if len(b) < MetadataLength {
		return nil, fmt.Errorf("metadata: %d bytes: %w", len(b), ErrTruncated)
	}
	return &MetadataPacket{
		Header:      h,
		LayerID:     u8(b, 25),
		TrackArtist: utf16le(b, 29, metadataFieldBytes),
		TrackTitle:  utf16le(b, 285, metadataFieldBytes),
		TrackKey:    u16(b, 541),
		TrackID:     u32(b, 543),
	}, nil
}

func (p *MetadataPacket) Encode() []byte {
	b := make([]byte, MetadataLength)
	p.Header.MessageType = MsgTypeData
	p.Header.encode(b)
	b[24] = DataTypeMetadata
	b[25] = p.LayerID
	_ = WriteUTF16LE(b, 29, metadataFieldBytes, p.TrackArtist)
	_ = WriteUTF16LE(b, 285, metadataFieldBytes, p.TrackTitle)
	putU16(b, 541, p.TrackKey)
	putU32(b, 543, p.TrackID)
	return b
}

// CueColor is the RGB marker color of a cue point.
type CueColor struct {
	R uint8
	G uint8
	B uint8
}

// Cue is one of the 18 cue point slots of a layer.
type Cue struct {
	CueType uint8
	InTime  uint32
	OutTime uint32
	Color   CueColor
}

func decodeCue(b []byte, off int) Cue {
	return Cue{
		CueType: u8(b, off),
		InTime:  u32(b, off+2),
		OutTime: u32(b, off+6),
		Color: CueColor{
			R: u8(b, off+11),
			G: u8(b, off+12),
			B: u8(b, off+13),
		},
	}
}

func (c Cue) encode(b []byte, off int) {
	b[off] = c.CueType
	putU32(b, off+2, c.InTime)
	putU32(b, off+6, c.OutTime)
	b[off+11] = c.Color.R
	b[off+12] = c.Color.G
	b[off+13] = c.Color.B
}

// CueDataPacket carries a layer's loop window and cue point table.
type CueDataPacket struct {
	Header
	LayerID uint8
	LoopIn  uint32
	LoopOut uint32
	Cues    [cueCount]Cue
}

func decodeCueData(h Header, b []byte) (*CueDataPacket, error) {
	if len(b) < CueDataLength {
		return nil, fmt.Errorf("cue data: %d bytes: %w", len(b), ErrTruncated)
	}
	p := &CueDataPacket{
		Header:  h,
		LayerID: u8(b, 25),
		LoopIn:  u32(b, 42),
		LoopOut: u32(b, 46),
	}
	for i := range p.Cues {
		p.Cues[i] = decodeCue(b, 47+cueStride*i)
	}
	return p, nil
}

func (p *CueDataPacket) Encode() []byte {
	b := make([]byte, CueDataLength)
	p.Header.MessageType = MsgTypeData
	p.Header.encode(b)
	b[24] = DataTypeCue
	b[25] = p.LayerID
	putU32(b, 42, p.LoopIn)
	putU32(b, 46, p.LoopOut)
	for i := range p.Cues {
		p.Cues[i].encode(b, 47+cueStride*i)
	}
	return b
}

// WaveformSample is one sample of a rendered waveform. The wire stores
// samples as alternating bytes; the reference source interprets them as
// color then level, which is preserved here.
type WaveformSample struct {
	Color uint8
	Level uint8
}

// WaveformPacket is one fragment of a rendered waveform. A payload
// larger than one datagram arrives as TotalPacket fragments numbered
// 0..TotalPacket-1; Data holds this fragment's sample bytes.
type WaveformPacket struct {
	Header
	SubType      uint8 // DataTypeSmallWaveform or DataTypeBigWaveform
	LayerID      uint8
	DataSize     uint32
	TotalPacket  uint32
	PacketNumber uint32
	Data         []byte
}

// Samples decodes the fragment's alternating color/level byte pairs.
func (p *WaveformPacket) Samples() []WaveformSample {
	samples := make([]WaveformSample, 0, len(p.Data)/2)
	for i := 0; i+1 < len(p.Data); i += 2 {
		samples = append(samples, WaveformSample{Color: p.Data[i], Level: p.Data[i+1]})
	}
	return samples
}

func decodeWaveform(h Header, subType uint8, b []byte) (*WaveformPacket, error) {
	length := SmallWaveformLength
	if subType == DataTypeBigWaveform {
		length = BigWaveformLength
	}
	if len(b) < length {
		return nil, fmt.Errorf("waveform: %d bytes: %w", len(b), ErrTruncated)
	}
	data := make([]byte, length-waveformSampleOffset)
	copy(data, b[waveformSampleOffset:length])
	return &WaveformPacket{
		Header:       h,
		SubType:      subType,
		LayerID:      u8(b, 25),
		DataSize:     u32(b, 26),
		TotalPacket:  u32(b, 30),
		PacketNumber: u32(b, 34),
		Data:         data,
	}, nil
}

func (p *WaveformPacket) Encode() []byte {
	length := SmallWaveformLength
	if p.SubType == DataTypeBigWaveform {
		length = BigWaveformLength
	}
	b := make([]byte, length)
	p.Header.MessageType = MsgTypeData
	p.Header.encode(b)
	b[24] = p.SubType
	b[25] = p.LayerID
	putU32(b, 26, p.DataSize)
	putU32(b, 30, p.TotalPacket)
	putU32(b, 34, p.PacketNumber)
	copy(b[waveformSampleOffset:], p.Data)
	return b
}

// BeatGridPacket is the packet type for beat grid data. Decode does not
// produce it: a beat grid datagram is recognized and yields
// ErrUnsupported, and its body is not kept.
type BeatGridPacket struct {
	Header
	LayerID uint8
	Raw     []byte
}

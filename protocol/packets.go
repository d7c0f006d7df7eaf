package protocol

import "fmt"

// Packet is any decoded TCNet datagram. The management header is embedded
// in every concrete packet type and promoted through Head.
type Packet interface {
	Head() Header
}

// Head returns the management header; it makes every embedding packet
// satisfy the Packet interface.
func (h Header) Head() Header { return h }

// Fixed on-wire sizes per packet type.
const (
	OptInLength    = 68
	OptOutLength   = 28
	StatusLength   = 300
	TimeSyncLength = 32
	ErrorLength    = 30
	RequestLength  = 26
	TimeLength     = 154
)

// OptInPacket announces a node joining the segment. ListenerPort is the
// unicast port the node accepts requests on.
type OptInPacket struct {
	Header
	NodeCount    uint16
	ListenerPort uint16
	Uptime       uint16
	VendorName   string
	AppName      string
	VersionMajor uint8
	VersionMinor uint8
	VersionBug   uint8
}

func decodeOptIn(h Header, b []byte) (*OptInPacket, error) {
	if len(b) < OptInLength {
		return nil, fmt.Errorf("opt-in: %d bytes: %w", len(b), ErrTruncated)
	}
	return &OptInPacket{
		Header:       h,
		NodeCount:    u16(b, 24),
		ListenerPort: u16(b, 26),
		Uptime:       u16(b, 28),
		VendorName:   ascii(b, 32, 16),
		AppName:      ascii(b, 48, 16),
		VersionMajor: u8(b, 64),
		VersionMinor: u8(b, 65),
		VersionBug:   u8(b, 66),
	}, nil
}

func (p *OptInPacket) Encode() []byte {
	b := make([]byte, OptInLength)
	p.Header.MessageType = MsgTypeOptIn
	p.Header.encode(b)
	putU16(b, 24, p.NodeCount)
	putU16(b, 26, p.ListenerPort)
	putU16(b, 28, p.Uptime)
	_ = WriteASCII(b, 32, 16, p.VendorName)
	_ = WriteASCII(b, 48, 16, p.AppName)
	b[64] = p.VersionMajor
	b[65] = p.VersionMinor
	b[66] = p.VersionBug
	return b
}

// OptOutPacket announces a node leaving the segment.
type OptOutPacket struct {
	Header
	NodeCount    uint16
	ListenerPort uint16
}

func decodeOptOut(h Header, b []byte) (*OptOutPacket, error) {
	if len(b) < OptOutLength {
		return nil, fmt.Errorf("opt-out: %d bytes: %w", len(b), ErrTruncated)
	}
	return &OptOutPacket{
		Header:       h,
		NodeCount:    u16(b, 24),
		ListenerPort: u16(b, 26),
	}, nil
}

func (p *OptOutPacket) Encode() []byte {
	b := make([]byte, OptOutLength)
	p.Header.MessageType = MsgTypeOptOut
	p.Header.encode(b)
	putU16(b, 24, p.NodeCount)
	putU16(b, 26, p.ListenerPort)
	return b
}

// StatusPacket is the periodic broadcast carrying per-layer playback
// state and layer names.
type StatusPacket struct {
	Header
	LayerSource    [8]uint8
	LayerStatus    [8]uint8
	TrackID        [8]uint32
	SMPTEMode      uint8
	AutoMasterMode uint8
	LayerName      [8]string
}

func decodeStatus(h Header, b []byte) (*StatusPacket, error) {
	if len(b) < StatusLength {
		return nil, fmt.Errorf("status: %d bytes: %w", len(b), ErrTruncated)
	}
	p := &StatusPacket{
		Header:         h,
		SMPTEMode:      u8(b, 83),
		AutoMasterMode: u8(b, 84),
	}
	for i := 0; i < 8; i++ {
		p.LayerSource[i] = u8(b, 34+i)
		p.LayerStatus[i] = u8(b, 42+i)
		p.TrackID[i] = u32(b, 50+4*i)
		p.LayerName[i] = ascii(b, 172+16*i, 16)
	}
	return p, nil
}

func (p *StatusPacket) Encode() []byte {
	b := make([]byte, StatusLength)
	p.Header.MessageType = MsgTypeStatus
	p.Header.encode(b)
	for i := 0; i < 8; i++ {
		b[34+i] = p.LayerSource[i]
		b[42+i] = p.LayerStatus[i]
		putU32(b, 50+4*i, p.TrackID[i])
		_ = WriteASCII(b, 172+16*i, 16, p.LayerName[i])
	}
	b[83] = p.SMPTEMode
	b[84] = p.AutoMasterMode
	return b
}

// TimeSyncPacket carries the two-step clock exchange.
//
// NodeListenerPort is read from body offset 26. The documented layout
// places it at absolute offset 2, inside the header, which cannot be
// right; offset 26 matches the field packing of the sibling packets.
type TimeSyncPacket struct {
	Header
	Step             uint8
	NodeListenerPort uint16
	RemoteTimestamp  uint32
}

func decodeTimeSync(h Header, b []byte) (*TimeSyncPacket, error) {
	if len(b) < TimeSyncLength {
		return nil, fmt.Errorf("time sync: %d bytes: %w", len(b), ErrTruncated)
	}
	return &TimeSyncPacket{
		Header:           h,
		Step:             u8(b, 24),
		NodeListenerPort: u16(b, 26),
		RemoteTimestamp:  u32(b, 28),
	}, nil
}

func (p *TimeSyncPacket) Encode() []byte {
	b := make([]byte, TimeSyncLength)
	p.Header.MessageType = MsgTypeTimeSync
	p.Header.encode(b)
	b[24] = p.Step
	putU16(b, 26, p.NodeListenerPort)
	putU32(b, 28, p.RemoteTimestamp)
	return b
}

// ErrorPacket is a peer's notification that a request failed (or, with
// code 255, an acknowledgment).
type ErrorPacket struct {
	Header
	DataType    uint8
	LayerID     uint8
	Code        uint16
	MessageType uint16
}

func decodeError(h Header, b []byte) (*ErrorPacket, error) {
	if len(b) < ErrorLength {
		return nil, fmt.Errorf("error packet: %d bytes: %w", len(b), ErrTruncated)
	}
	return &ErrorPacket{
		Header:      h,
		DataType:    u8(b, 24),
		LayerID:     u8(b, 25),
		Code:        u16(b, 26),
		MessageType: u16(b, 28),
	}, nil
}

func (p *ErrorPacket) Encode() []byte {
	b := make([]byte, ErrorLength)
	p.Header.MessageType = MsgTypeError
	p.Header.encode(b)
	b[24] = p.DataType
	b[25] = p.LayerID
	putU16(b, 26, p.Code)
	putU16(b, 28, p.MessageType)
	return b
}

// RequestPacket asks a peer to send the payload selected by DataType for
// a layer.
type RequestPacket struct {
	Header
	DataType uint8
	Layer    uint8
}

func decodeRequest(h Header, b []byte) (*RequestPacket, error) {
	if len(b) < RequestLength {
		return nil, fmt.Errorf("request: %d bytes: %w", len(b), ErrTruncated)
	}
	return &RequestPacket{
		Header:   h,
		DataType: u8(b, 24),
		Layer:    u8(b, 25),
	}, nil
}

func (p *RequestPacket) Encode() []byte {
	b := make([]byte, RequestLength)
	p.Header.MessageType = MsgTypeRequest
	p.Header.encode(b)
	b[24] = p.DataType
	b[25] = p.Layer
	return b
}

// Timecode states.
const (
	TimecodeStopped     = 0
	TimecodeRunning     = 1
	TimecodeForceReSync = 2
)

// Timecode is the 6 byte SMPTE sub-record of the Time packet.
type Timecode struct {
	Mode    uint8
	State   uint8
	Hours   uint8
	Minutes uint8
	Seconds uint8
	Frames  uint8
}

func decodeTimecode(b []byte, off int) Timecode {
	return Timecode{
		Mode:    u8(b, off),
		State:   u8(b, off+1),
		Hours:   u8(b, off+2),
		Minutes: u8(b, off+3),
		Seconds: u8(b, off+4),
		Frames:  u8(b, off+5),
	}
}

func (t Timecode) encode(b []byte, off int) {
	b[off] = t.Mode
	b[off+1] = t.State
	b[off+2] = t.Hours
	b[off+3] = t.Minutes
	b[off+4] = t.Seconds
	b[off+5] = t.Frames
}

// TimePacket is the high-rate broadcast with per-layer playhead positions
// and SMPTE timecode.
type TimePacket struct {
	Header
	LayerCurrentTime [8]uint32
	LayerTotalTime   [8]uint32
	BeatMarker       [8]uint8
	State            [8]uint8
	SMPTEMode        uint8
	Timecode         [8]Timecode
}

func decodeTime(h Header, b []byte) (*TimePacket, error) {
	if len(b) < TimeLength {
		return nil, fmt.Errorf("time: %d bytes: %w", len(b), ErrTruncated)
	}
	p := &TimePacket{
		Header:    h,
		SMPTEMode: u8(b, 105),
	}
	for i := 0; i < 8; i++ {
		p.LayerCurrentTime[i] = u32(b, 24+4*i)
		p.LayerTotalTime[i] = u32(b, 56+4*i)
		p.BeatMarker[i] = u8(b, 88+i)
		p.State[i] = u8(b, 96+i)
		p.Timecode[i] = decodeTimecode(b, 106+6*i)
	}
	return p, nil
}

func (p *TimePacket) Encode() []byte {
	b := make([]byte, TimeLength)
	p.Header.MessageType = MsgTypeTime
	p.Header.encode(b)
	for i := 0; i < 8; i++ {
		putU32(b, 24+4*i, p.LayerCurrentTime[i])
		putU32(b, 56+4*i, p.LayerTotalTime[i])
		b[88+i] = p.BeatMarker[i]
		b[96+i] = p.State[i]
		p.Timecode[i].encode(b, 106+6*i)
	}
	b[105] = p.SMPTEMode
	return b
}

// KeyboardPacket carries remote keyboard input. The declared data size
// and the raw payload are recorded as received; the reference firmware
// always sends a two byte payload regardless of the declared size, so no
// attempt is made to reconcile them.
type KeyboardPacket struct {
	Header
	DeclaredSize uint32
	Raw          []byte
}

func decodeKeyboard(h Header, b []byte) (*KeyboardPacket, error) {
	if len(b) < HeaderSize+4 {
		return nil, fmt.Errorf("keyboard: %d bytes: %w", len(b), ErrTruncated)
	}
	raw := make([]byte, len(b)-HeaderSize-4)
	copy(raw, b[HeaderSize+4:])
	return &KeyboardPacket{
		Header:       h,
		DeclaredSize: u32(b, 24),
		Raw:          raw,
	}, nil
}

// RawPacket carries a recognized message type whose body the engine does
// not interpret (application data, control, text, file transport).
type RawPacket struct {
	Header
	Raw []byte
}

func decodeRaw(h Header, b []byte) (*RawPacket, error) {
	raw := make([]byte, len(b)-HeaderSize)
	copy(raw, b[HeaderSize:])
	return &RawPacket{Header: h, Raw: raw}, nil
}

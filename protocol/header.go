package protocol

import "fmt"

// Every TCNet datagram starts with a 24 byte management header.
const HeaderSize = 24

// ProtocolVersionMajor is the only major version this implementation
// understands; datagrams with any other value are rejected.
const ProtocolVersionMajor = 3

const headerMagic = "TCN"

// Message type codes, header offset 7.
const (
	MsgTypeOptIn           = 2
	MsgTypeOptOut          = 3
	MsgTypeStatus          = 5
	MsgTypeTimeSync        = 10
	MsgTypeError           = 13
	MsgTypeRequest         = 20
	MsgTypeApplicationData = 30
	MsgTypeControl         = 101
	MsgTypeText            = 128
	MsgTypeKeyboard        = 132
	MsgTypeData            = 200
	MsgTypeFile            = 204
	MsgTypeTime            = 254
)

// Node type codes, header offset 17.
const (
	NodeTypeAuto     = 1
	NodeTypeMaster   = 2
	NodeTypeSlave    = 4
	NodeTypeRepeater = 8
)

// Header is the management header shared by every packet.
//
// Layout: nodeID u16 @0, major u8 @2, minor u8 @3, "TCN" @4, type u8 @7,
// nodeName ascii[8] @8, seq u8 @16, nodeType u8 @17, nodeOptions u16 @18,
// timestamp u32 @20. Timestamp is milliseconds since the sender's local
// epoch.
type Header struct {
	NodeID       uint16
	MinorVersion uint8
	MessageType  uint8
	NodeName     string
	Seq          uint8
	NodeType     uint8
	NodeOptions  uint16
	Timestamp    uint32
}

// DecodeHeader validates and decodes the management header prefix.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("header: %d bytes: %w", len(b), ErrTruncated)
	}
	if major := b[2]; major != ProtocolVersionMajor {
		return Header{}, fmt.Errorf("header: major version %d: %w", major, ErrBadVersion)
	}
	if string(b[4:7]) != headerMagic {
		return Header{}, fmt.Errorf("header: magic %q: %w", b[4:7], ErrBadMagic)
	}
	return Header{
		NodeID:       u16(b, 0),
		MinorVersion: u8(b, 3),
		MessageType:  u8(b, 7),
		NodeName:     ascii(b, 8, 8),
		Seq:          u8(b, 16),
		NodeType:     u8(b, 17),
		NodeOptions:  u16(b, 18),
		Timestamp:    u32(b, 20),
	}, nil
}

// encode fills the first HeaderSize bytes of b, which must be large enough.
func (h Header) encode(b []byte) {
	putU16(b, 0, h.NodeID)
	b[2] = ProtocolVersionMajor
	b[3] = h.MinorVersion
	copy(b[4:7], headerMagic)
	b[7] = h.MessageType
	_ = WriteASCII(b, 8, 8, h.NodeName)
	b[16] = h.Seq
	b[17] = h.NodeType
	putU16(b, 18, h.NodeOptions)
	putU32(b, 20, h.Timestamp)
}

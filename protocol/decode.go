package protocol

import "fmt"

// Decode validates the management header and decodes the datagram into
// its concrete packet type. Unknown message types and data sub-types the
// engine recognizes but cannot interpret yield ErrUnsupported; the caller
// drops the datagram and keeps receiving.
func Decode(b []byte) (Packet, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return nil, err
	}
	switch h.MessageType {
	case MsgTypeOptIn:
		return decodeOptIn(h, b)
	case MsgTypeOptOut:
		return decodeOptOut(h, b)
	case MsgTypeStatus:
		return decodeStatus(h, b)
	case MsgTypeTimeSync:
		return decodeTimeSync(h, b)
	case MsgTypeError:
		return decodeError(h, b)
	case MsgTypeRequest:
		return decodeRequest(h, b)
	case MsgTypeTime:
		return decodeTime(h, b)
	case MsgTypeKeyboard:
		return decodeKeyboard(h, b)
	case MsgTypeApplicationData, MsgTypeControl, MsgTypeText, MsgTypeFile:
		return decodeRaw(h, b)
	case MsgTypeData:
		return decodeData(h, b)
	default:
		return nil, fmt.Errorf("message type %d: %w", h.MessageType, ErrUnsupported)
	}
}

func decodeData(h Header, b []byte) (Packet, error) {
	if len(b) < HeaderSize+1 {
		return nil, fmt.Errorf("data packet: %d bytes: %w", len(b), ErrTruncated)
	}
	subType := u8(b, 24)
	switch subType {
	case DataTypeMetrics:
		return decodeMetrics(h, b)
	case DataTypeMetadata:
		return decodeMetadata(h, b)
	case DataTypeCue:
		return decodeCueData(h, b)
	case DataTypeSmallWaveform, DataTypeBigWaveform:
		return decodeWaveform(h, subType, b)
	case DataTypeMixer:
		return decodeMixer(h, b)
	case DataTypeBeatGrid:
		return nil, fmt.Errorf("beat grid data: %w", ErrUnsupported)
	default:
		return nil, fmt.Errorf("data sub-type %d: %w", subType, ErrUnsupported)
	}
}

// DataType returns the sub-type code of a decoded Data packet, or 0 if
// the packet is not a Data payload.
func DataType(p Packet) uint8 {
	switch v := p.(type) {
	case *MetricsPacket:
		return DataTypeMetrics
	case *MetadataPacket:
		return DataTypeMetadata
	case *CueDataPacket:
		return DataTypeCue
	case *WaveformPacket:
		return v.SubType
	case *MixerPacket:
		return DataTypeMixer
	case *BeatGridPacket:
		return DataTypeBeatGrid
	default:
		return 0
	}
}

// DataLayer returns the layer a decoded Data packet refers to. Mixer
// state is not layer addressed and reports 0.
func DataLayer(p Packet) uint8 {
	switch v := p.(type) {
	case *MetricsPacket:
		return v.LayerID
	case *MetadataPacket:
		return v.LayerID
	case *CueDataPacket:
		return v.LayerID
	case *WaveformPacket:
		return v.LayerID
	case *BeatGridPacket:
		return v.LayerID
	default:
		return 0
	}
}

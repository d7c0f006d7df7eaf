package protocol

import "fmt"

// MixerChannel is the 14 byte per-channel sub-record of the mixer state.
type MixerChannel struct {
	Source           uint8
	AudioLevel       uint8
	Fader            uint8
	Trim             uint8
	Comp             uint8
	EqHi             uint8
	EqHiMid          uint8
	EqLowMid         uint8
	EqLow            uint8
	FilterColor      uint8
	Send             uint8
	CueA             uint8
	CueB             uint8
	CrossfaderAssign uint8
}

func decodeMixerChannel(b []byte, off int) MixerChannel {
	return MixerChannel{
		Source:           u8(b, off),
		AudioLevel:       u8(b, off+1),
		Fader:            u8(b, off+2),
		Trim:             u8(b, off+3),
		Comp:             u8(b, off+4),
		EqHi:             u8(b, off+5),
		EqHiMid:          u8(b, off+6),
		EqLowMid:         u8(b, off+7),
		EqLow:            u8(b, off+8),
		FilterColor:      u8(b, off+9),
		Send:             u8(b, off+10),
		CueA:             u8(b, off+11),
		CueB:             u8(b, off+12),
		CrossfaderAssign: u8(b, off+13),
	}
}

func (c MixerChannel) encode(b []byte, off int) {
	b[off] = c.Source
	b[off+1] = c.AudioLevel
	b[off+2] = c.Fader
	b[off+3] = c.Trim
	b[off+4] = c.Comp
	b[off+5] = c.EqHi
	b[off+6] = c.EqHiMid
	b[off+7] = c.EqLowMid
	b[off+8] = c.EqLow
	b[off+9] = c.FilterColor
	b[off+10] = c.Send
	b[off+11] = c.CueA
	b[off+12] = c.CueB
	b[off+13] = c.CrossfaderAssign
}

// mixerChannelOffsets are the six channel sub-records inside the packet.
var mixerChannelOffsets = [mixerChannelCount]int{125, 149, 173, 197, 221, 245}

// MixerPacket is the wide mixer state record: global controls, effect
// section, headphone and booth sections, and six channel strips.
type MixerPacket struct {
	Header
	MixerID   uint8
	MixerType uint8
	MixerName string

	MicEqHi           uint8
	MicEqLow          uint8
	MasterAudioLevel  uint8
	MasterFader       uint8
	LinkCueA          uint8
	LinkCueB          uint8
	MasterFilter      uint8
	MasterCueA        uint8
	MasterCueB        uint8
	MasterIsolatorOn  uint8
	MasterIsolatorHi  uint8
	MasterIsolatorMid uint8
	MasterIsolatorLow uint8
	FilterHPF         uint8
	FilterLPF         uint8
	FilterRes         uint8

	SendFXEffect     uint8
	SendFXExt1       uint8
	SendFXExt2       uint8
	SendFXMasterMix  uint8
	SendFXSizeFeed   uint8
	SendFXTime       uint8
	SendFXHPF        uint8
	SendFXLevel      uint8
	SendReturnSource uint8
	SendReturnType   uint8
	SendReturnOn     uint8
	SendReturnLevel  uint8

	ChannelFaderCurve uint8
	CrossfaderCurve   uint8
	Crossfader        uint8

	BeatFXOn      uint8
	BeatFXDepth   uint8
	BeatFXChannel uint8
	BeatFXSelect  uint8
	BeatFXFreqHi  uint8
	BeatFXFreqMid uint8
	BeatFXFreqLow uint8

	HeadphonesPreEQ uint8
	HeadphonesALev  uint8
	HeadphonesAMix  uint8
	HeadphonesBLev  uint8
	HeadphonesBMix  uint8

	BoothLevel uint8
	BoothEqHi  uint8
	BoothEqLow uint8

	Channels [mixerChannelCount]MixerChannel
}

func decodeMixer(h Header, b []byte) (*MixerPacket, error) {
	if len(b) < MixerLength {
		return nil, fmt.Errorf("mixer: %d bytes: %w", len(b), ErrTruncated)
	}
	p := &MixerPacket{
		Header:    h,
		MixerID:   u8(b, 25),
		MixerType: u8(b, 26),
		MixerName: ascii(b, 29, 16),

		MicEqHi:           u8(b, 59),
		MicEqLow:          u8(b, 60),
		MasterAudioLevel:  u8(b, 61),
		MasterFader:       u8(b, 62),
		LinkCueA:          u8(b, 67),
		LinkCueB:          u8(b, 68),
		MasterFilter:      u8(b, 69),
		MasterCueA:        u8(b, 71),
		MasterCueB:        u8(b, 72),
		MasterIsolatorOn:  u8(b, 74),
		MasterIsolatorHi:  u8(b, 75),
		MasterIsolatorMid: u8(b, 76),
		MasterIsolatorLow: u8(b, 77),
		FilterHPF:         u8(b, 79),
		FilterLPF:         u8(b, 80),
		FilterRes:         u8(b, 81),

		SendFXEffect:     u8(b, 84),
		SendFXExt1:       u8(b, 85),
		SendFXExt2:       u8(b, 86),
		SendFXMasterMix:  u8(b, 87),
		SendFXSizeFeed:   u8(b, 88),
		SendFXTime:       u8(b, 89),
		SendFXHPF:        u8(b, 90),
		SendFXLevel:      u8(b, 91),
		SendReturnSource: u8(b, 92),
		SendReturnType:   u8(b, 93),
		SendReturnOn:     u8(b, 94),
		SendReturnLevel:  u8(b, 95),

		ChannelFaderCurve: u8(b, 97),
		CrossfaderCurve:   u8(b, 98),
		Crossfader:        u8(b, 99),

		BeatFXOn:      u8(b, 100),
		BeatFXDepth:   u8(b, 101),
		BeatFXChannel: u8(b, 102),
		BeatFXSelect:  u8(b, 103),
		BeatFXFreqHi:  u8(b, 104),
		BeatFXFreqMid: u8(b, 105),
		BeatFXFreqLow: u8(b, 106),

		HeadphonesPreEQ: u8(b, 107),
		HeadphonesALev:  u8(b, 108),
		HeadphonesAMix:  u8(b, 109),
		HeadphonesBLev:  u8(b, 110),
		HeadphonesBMix:  u8(b, 111),

		BoothLevel: u8(b, 112),
		BoothEqHi:  u8(b, 113),
		BoothEqLow: u8(b, 114),
	}
	for i, off := range mixerChannelOffsets {
		p.Channels[i] = decodeMixerChannel(b, off)
	}
	return p, nil
}

func (p *MixerPacket) Encode() []byte {
	b := make([]byte, MixerLength)
	p.Header.MessageType = MsgTypeData
	p.Header.encode(b)
	b[24] = DataTypeMixer
	b[25] = p.MixerID
	b[26] = p.MixerType
	_ = WriteASCII(b, 29, 16, p.MixerName)

	b[59] = p.MicEqHi
	b[60] = p.MicEqLow
	b[61] = p.MasterAudioLevel
	b[62] = p.MasterFader
	b[67] = p.LinkCueA
	b[68] = p.LinkCueB
	b[69] = p.MasterFilter
	b[71] = p.MasterCueA
	b[72] = p.MasterCueB
	b[74] = p.MasterIsolatorOn
	b[75] = p.MasterIsolatorHi
	b[76] = p.MasterIsolatorMid
	b[77] = p.MasterIsolatorLow
	b[79] = p.FilterHPF
	b[80] = p.FilterLPF
	b[81] = p.FilterRes

	b[84] = p.SendFXEffect
	b[85] = p.SendFXExt1
	b[86] = p.SendFXExt2
	b[87] = p.SendFXMasterMix
	b[88] = p.SendFXSizeFeed
	b[89] = p.SendFXTime
	b[90] = p.SendFXHPF
	b[91] = p.SendFXLevel
	b[92] = p.SendReturnSource
	b[93] = p.SendReturnType
	b[94] = p.SendReturnOn
	b[95] = p.SendReturnLevel

	b[97] = p.ChannelFaderCurve
	b[98] = p.CrossfaderCurve
	b[99] = p.Crossfader

	b[100] = p.BeatFXOn
	b[101] = p.BeatFXDepth
	b[102] = p.BeatFXChannel
	b[103] = p.BeatFXSelect
	b[104] = p.BeatFXFreqHi
	b[105] = p.BeatFXFreqMid
	b[106] = p.BeatFXFreqLow

	b[107] = p.HeadphonesPreEQ
	b[108] = p.HeadphonesALev
	b[109] = p.HeadphonesAMix
	b[110] = p.HeadphonesBLev
	b[111] = p.HeadphonesBMix

	b[112] = p.BoothLevel
	b[113] = p.BoothEqHi
	b[114] = p.BoothEqLow

	for i, off := range mixerChannelOffsets {
		p.Channels[i].encode(b, off)
	}
	return b
}

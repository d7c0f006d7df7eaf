package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func testHeader(msgType uint8) Header {
	return Header{
		NodeID:      7,
		MessageType: msgType,
		NodeName:    "PLAYER",
		Seq:         1,
		NodeType:    NodeTypeMaster,
		Timestamp:   1000,
	}
}

func TestDecodeMetadata(t *testing.T) {
	src := &MetadataPacket{
		Header:      testHeader(MsgTypeData),
		LayerID:     2,
		TrackArtist: "Artist",
		TrackTitle:  "Song",
		TrackKey:    5,
		TrackID:     42,
	}
	pkt, err := Decode(src.Encode())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	md, ok := pkt.(*MetadataPacket)
	if !ok {
		t.Fatalf("decoded %T, want *MetadataPacket", pkt)
	}
	if md.TrackArtist != "Artist" || md.TrackTitle != "Song" {
		t.Errorf("strings = %q/%q", md.TrackArtist, md.TrackTitle)
	}
	if md.TrackKey != 5 || md.TrackID != 42 || md.LayerID != 2 {
		t.Errorf("fields = key %d, id %d, layer %d", md.TrackKey, md.TrackID, md.LayerID)
	}
}

func TestDecodeMetadata_UnicodeStrings(t *testing.T) {
	src := &MetadataPacket{
		Header:      testHeader(MsgTypeData),
		TrackArtist: "Dvořák",
		TrackTitle:  "日本語タイトル",
	}
	pkt, err := Decode(src.Encode())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	md := pkt.(*MetadataPacket)
	if md.TrackArtist != src.TrackArtist || md.TrackTitle != src.TrackTitle {
		t.Errorf("got %q/%q", md.TrackArtist, md.TrackTitle)
	}
}

func TestDecodeCueData_Offsets(t *testing.T) {
	src := &CueDataPacket{
		Header:  testHeader(MsgTypeData),
		LayerID: 3,
		LoopIn:  1111,
		LoopOut: 2222,
	}
	src.Cues[0] = Cue{CueType: 1, InTime: 10, OutTime: 20, Color: CueColor{R: 255, G: 128, B: 1}}
	src.Cues[17] = Cue{CueType: 4, InTime: 170, OutTime: 180, Color: CueColor{R: 1, G: 2, B: 3}}

	b := src.Encode()
	if len(b) != CueDataLength {
		t.Fatalf("encoded length %d, want %d", len(b), CueDataLength)
	}
	// Last cue slot starts at 47 + 17*22 = 421.
	if b[421] != 4 {
		t.Errorf("cue 17 type byte at 421 = %d, want 4", b[421])
	}

	pkt, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	cue := pkt.(*CueDataPacket)
	if cue.Cues[0] != src.Cues[0] || cue.Cues[17] != src.Cues[17] {
		t.Errorf("cue slots did not survive decode")
	}
	if cue.LoopIn != 1111 || cue.LoopOut != 2222 {
		t.Errorf("loop window = %d..%d", cue.LoopIn, cue.LoopOut)
	}
}

func TestDecodeWaveform_Samples(t *testing.T) {
	data := make([]byte, SmallWaveformLength-42)
	data[0] = 9  // color of sample 0
	data[1] = 90 // level of sample 0
	src := &WaveformPacket{
		Header:      testHeader(MsgTypeData),
		SubType:     DataTypeSmallWaveform,
		LayerID:     1,
		DataSize:    2400,
		TotalPacket: 1,
		Data:        data,
	}
	pkt, err := Decode(src.Encode())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	wf := pkt.(*WaveformPacket)
	samples := wf.Samples()
	if len(samples) != len(data)/2 {
		t.Fatalf("sample count %d, want %d", len(samples), len(data)/2)
	}
	if samples[0] != (WaveformSample{Color: 9, Level: 90}) {
		t.Errorf("sample 0 = %+v", samples[0])
	}
}

func TestDecode_BeatGridUnsupported(t *testing.T) {
	b := make([]byte, 256)
	testHeader(MsgTypeData).encode(b)
	b[24] = DataTypeBeatGrid
	if _, err := Decode(b); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestDecode_UnknownDataSubType(t *testing.T) {
	b := make([]byte, 256)
	testHeader(MsgTypeData).encode(b)
	b[24] = 99
	if _, err := Decode(b); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestDecode_UnknownMessageType(t *testing.T) {
	b := make([]byte, 64)
	testHeader(77).encode(b)
	if _, err := Decode(b); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestDecode_Keyboard(t *testing.T) {
	b := make([]byte, HeaderSize+4+2)
	testHeader(MsgTypeKeyboard).encode(b)
	putU32(b, 24, 64) // declared size disagrees with the actual payload
	b[28] = 0x41
	b[29] = 0x42

	pkt, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	kb := pkt.(*KeyboardPacket)
	if kb.DeclaredSize != 64 {
		t.Errorf("declared size %d, want 64", kb.DeclaredSize)
	}
	if !bytes.Equal(kb.Raw, []byte{0x41, 0x42}) {
		t.Errorf("raw payload %v", kb.Raw)
	}
}

func TestDecode_RawPassthrough(t *testing.T) {
	for _, msgType := range []uint8{MsgTypeApplicationData, MsgTypeControl, MsgTypeText, MsgTypeFile} {
		b := make([]byte, HeaderSize+3)
		testHeader(msgType).encode(b)
		copy(b[HeaderSize:], []byte{1, 2, 3})

		pkt, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode(%d) failed: %v", msgType, err)
		}
		raw, ok := pkt.(*RawPacket)
		if !ok {
			t.Fatalf("Decode(%d) = %T, want *RawPacket", msgType, pkt)
		}
		if !bytes.Equal(raw.Raw, []byte{1, 2, 3}) {
			t.Errorf("raw body %v", raw.Raw)
		}
	}
}

func TestDecode_TruncatedPacketBody(t *testing.T) {
	full := (&OptInPacket{Header: testHeader(MsgTypeOptIn)}).Encode()
	if _, err := Decode(full[:OptInLength-1]); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestDecode_ShorterThanHeader(t *testing.T) {
	if _, err := Decode(make([]byte, 10)); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestDataTypeAndLayerHelpers(t *testing.T) {
	wf := &WaveformPacket{SubType: DataTypeBigWaveform, LayerID: 4}
	if DataType(wf) != DataTypeBigWaveform || DataLayer(wf) != 4 {
		t.Errorf("waveform helpers = %d/%d", DataType(wf), DataLayer(wf))
	}
	mixer := &MixerPacket{}
	if DataType(mixer) != DataTypeMixer || DataLayer(mixer) != 0 {
		t.Errorf("mixer helpers = %d/%d", DataType(mixer), DataLayer(mixer))
	}
	if DataType(&OptInPacket{}) != 0 {
		t.Errorf("non-data packet should report data type 0")
	}
}

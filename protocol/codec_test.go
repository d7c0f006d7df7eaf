package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadASCII_NulHandling(t *testing.T) {
	cases := []struct {
		name  string
		field []byte
		want  string
	}{
		{"all nuls", []byte{0, 0, 0, 0}, ""},
		{"no nul", []byte("DECK"), "DECK"},
		{"nul mid field", []byte{'C', 'D', 'J', 0, 'X', 'X'}, "CDJ"},
		{"trailing nuls", []byte{'A', 0, 0, 0}, "A"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadASCII(tc.field, 0, len(tc.field))
			if err != nil {
				t.Fatalf("ReadASCII failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestReadASCII_Truncated(t *testing.T) {
	if _, err := ReadASCII([]byte{1, 2}, 0, 4); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
	if _, err := ReadASCII([]byte{1, 2, 3, 4}, 3, 2); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestReadUTF16LE(t *testing.T) {
	// "Ab" followed by a NUL and junk
	field := []byte{'A', 0, 'b', 0, 0, 0, 0xff, 0xff}
	got, err := ReadUTF16LE(field, 0, len(field))
	if err != nil {
		t.Fatalf("ReadUTF16LE failed: %v", err)
	}
	if got != "Ab" {
		t.Errorf("got %q, want %q", got, "Ab")
	}
}

func TestReadUTF16LE_OddLength(t *testing.T) {
	if _, err := ReadUTF16LE(make([]byte, 5), 0, 5); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestWriteASCII_PadsWithNul(t *testing.T) {
	b := bytes.Repeat([]byte{0xaa}, 8)
	if err := WriteASCII(b, 0, 8, "DJ"); err != nil {
		t.Fatalf("WriteASCII failed: %v", err)
	}
	want := []byte{'D', 'J', 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(b, want) {
		t.Errorf("got %v, want %v", b, want)
	}
}

func TestWriteASCII_TruncatesLongValue(t *testing.T) {
	b := make([]byte, 4)
	if err := WriteASCII(b, 0, 4, "LONGNAME"); err != nil {
		t.Fatalf("WriteASCII failed: %v", err)
	}
	got, _ := ReadASCII(b, 0, 4)
	if got != "LONG" {
		t.Errorf("got %q, want %q", got, "LONG")
	}
}

func TestIntAccessors(t *testing.T) {
	b := []byte{0x34, 0x12, 0x78, 0x56, 0x34, 0x12}
	if v, err := ReadU16LE(b, 0); err != nil || v != 0x1234 {
		t.Errorf("ReadU16LE = %#x, %v", v, err)
	}
	if v, err := ReadU32LE(b, 2); err != nil || v != 0x12345678 {
		t.Errorf("ReadU32LE = %#x, %v", v, err)
	}
	if _, err := ReadU32LE(b, 3); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
	if err := WriteU32LE(b, 4, 1); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestDecodeHeader(t *testing.T) {
	h := Header{
		NodeID:       321,
		MinorVersion: 4,
		MessageType:  MsgTypeStatus,
		NodeName:     "DECKSIM",
		Seq:          17,
		NodeType:     NodeTypeMaster,
		NodeOptions:  7,
		Timestamp:    123456,
	}
	b := make([]byte, HeaderSize)
	h.encode(b)

	got, err := DecodeHeader(b)
	if err != nil {
		t.Fatalf("DecodeHeader failed: %v", err)
	}
	if got != h {
		t.Errorf("got %+v, want %+v", got, h)
	}
}

func TestDecodeHeader_Truncated(t *testing.T) {
	if _, err := DecodeHeader(make([]byte, HeaderSize-1)); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestDecodeHeader_BadMagic(t *testing.T) {
	b := make([]byte, HeaderSize)
	Header{NodeID: 1}.encode(b)
	copy(b[4:7], "XXX")
	if _, err := DecodeHeader(b); !errors.Is(err, ErrBadMagic) {
		t.Errorf("expected ErrBadMagic, got %v", err)
	}
}

func TestDecodeHeader_BadVersion(t *testing.T) {
	b := make([]byte, HeaderSize)
	Header{NodeID: 1}.encode(b)
	b[2] = 2
	if _, err := DecodeHeader(b); !errors.Is(err, ErrBadVersion) {
		t.Errorf("expected ErrBadVersion, got %v", err)
	}
}

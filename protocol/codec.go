package protocol

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"
)

// All multi-byte integers on the wire are little-endian. Strings are
// fixed-width fields, NUL-padded on write and truncated at the first NUL
// on read.

// ReadU8 reads a byte at off.
func ReadU8(b []byte, off int) (uint8, error) {
	if off < 0 || off+1 > len(b) {
		return 0, fmt.Errorf("read u8 at %d of %d: %w", off, len(b), ErrTruncated)
	}
	return b[off], nil
}

// ReadU16LE reads a little-endian uint16 at off.
func ReadU16LE(b []byte, off int) (uint16, error) {
	if off < 0 || off+2 > len(b) {
		return 0, fmt.Errorf("read u16 at %d of %d: %w", off, len(b), ErrTruncated)
	}
	return binary.LittleEndian.Uint16(b[off:]), nil
}

// ReadU32LE reads a little-endian uint32 at off.
func ReadU32LE(b []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(b) {
		return 0, fmt.Errorf("read u32 at %d of %d: %w", off, len(b), ErrTruncated)
	}
	return binary.LittleEndian.Uint32(b[off:]), nil
}

// ReadASCII reads a fixed-width ASCII field, dropping the first NUL and
// everything after it.
func ReadASCII(b []byte, off, width int) (string, error) {
	if off < 0 || off+width > len(b) {
		return "", fmt.Errorf("read ascii %d+%d of %d: %w", off, width, len(b), ErrTruncated)
	}
	field := b[off : off+width]
	if i := indexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field), nil
}

// ReadUTF16LE reads a fixed-width UTF-16LE field of byteLen bytes,
// truncated at the first NUL code unit.
func ReadUTF16LE(b []byte, off, byteLen int) (string, error) {
	if off < 0 || off+byteLen > len(b) {
		return "", fmt.Errorf("read utf16 %d+%d of %d: %w", off, byteLen, len(b), ErrTruncated)
	}
	if byteLen%2 != 0 {
		return "", fmt.Errorf("utf16 field of %d bytes: %w", byteLen, ErrInvalidEncoding)
	}
	units := make([]uint16, 0, byteLen/2)
	for i := 0; i < byteLen; i += 2 {
		u := binary.LittleEndian.Uint16(b[off+i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units)), nil
}

// WriteU8 stores a byte at off.
func WriteU8(b []byte, off int, v uint8) error {
	if off < 0 || off+1 > len(b) {
		return fmt.Errorf("write u8 at %d of %d: %w", off, len(b), ErrTruncated)
	}
	b[off] = v
	return nil
}

// WriteU16LE stores a little-endian uint16 at off.
func WriteU16LE(b []byte, off int, v uint16) error {
	if off < 0 || off+2 > len(b) {
		return fmt.Errorf("write u16 at %d of %d: %w", off, len(b), ErrTruncated)
	}
	binary.LittleEndian.PutUint16(b[off:], v)
	return nil
}

// WriteU32LE stores a little-endian uint32 at off.
func WriteU32LE(b []byte, off int, v uint32) error {
	if off < 0 || off+4 > len(b) {
		return fmt.Errorf("write u32 at %d of %d: %w", off, len(b), ErrTruncated)
	}
	binary.LittleEndian.PutUint32(b[off:], v)
	return nil
}

// WriteASCII stores s in a fixed-width field at off, NUL-padding the
// remainder. Strings longer than the field are truncated.
func WriteASCII(b []byte, off, width int, s string) error {
	if off < 0 || off+width > len(b) {
		return fmt.Errorf("write ascii %d+%d of %d: %w", off, width, len(b), ErrTruncated)
	}
	field := b[off : off+width]
	n := copy(field, s)
	for i := n; i < width; i++ {
		field[i] = 0
	}
	return nil
}

// WriteUTF16LE stores s as UTF-16LE in a fixed-width field of byteLen
// bytes, NUL-padding the remainder.
func WriteUTF16LE(b []byte, off, byteLen int, s string) error {
	if off < 0 || off+byteLen > len(b) {
		return fmt.Errorf("write utf16 %d+%d of %d: %w", off, byteLen, len(b), ErrTruncated)
	}
	if byteLen%2 != 0 {
		return fmt.Errorf("utf16 field of %d bytes: %w", byteLen, ErrInvalidEncoding)
	}
	field := b[off : off+byteLen]
	for i := range field {
		field[i] = 0
	}
	units := utf16.Encode([]rune(s))
	if len(units) > byteLen/2 {
		units = units[:byteLen/2]
	}
	for i, u := range units {
		binary.LittleEndian.PutUint16(field[2*i:], u)
	}
	return nil
}

// CleanASCII keeps s printable and within width runes, for fields built
// from user configuration.
func CleanASCII(s string, width int) string {
	var sb strings.Builder
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			continue
		}
		sb.WriteByte(byte(r))
		if sb.Len() == width {
			break
		}
	}
	return sb.String()
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// unchecked accessors for decoders that have already validated the
// packet's fixed length.

func u8(b []byte, off int) uint8   { return b[off] }
func u16(b []byte, off int) uint16 { return binary.LittleEndian.Uint16(b[off:]) }
func u32(b []byte, off int) uint32 { return binary.LittleEndian.Uint32(b[off:]) }

func putU16(b []byte, off int, v uint16) { binary.LittleEndian.PutUint16(b[off:], v) }
func putU32(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:], v) }

func ascii(b []byte, off, width int) string {
	s, _ := ReadASCII(b, off, width)
	return s
}

func utf16le(b []byte, off, byteLen int) string {
	s, _ := ReadUTF16LE(b, off, byteLen)
	return s
}

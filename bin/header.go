package bin

import (
	"encoding/binary"
	"fmt"
)

// Header is the fixed 16 byte BIN header. TW, TH and Hash have no known
// effect on decoding and are carried through untouched.
type Header struct {
	Compressed bool
	CLUT       uint16
	BitDepth   uint16
	Width      uint16
	Height     uint16
	TW         uint16
	TH         uint16
	Hash       uint16
}

// ParseHeader decodes the header from the first 16 bytes of b.
func ParseHeader(b []byte) (Header, error) {
	var h Header
	if err := h.UnmarshalBinary(b); err != nil {
		return Header{}, err
	}
	return h, nil
}

// HasCLUT reports whether a palette follows the header.
func (h Header) HasCLUT() bool {
	return h.CLUT == EmbeddedCLUT
}

// PixelCount returns Width*Height.
func (h Header) PixelCount() int {
	return int(h.Width) * int(h.Height)
}

// MarshalBinary encodes the header. Byte 1 is always written as zero.
func (h Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)
	if h.Compressed {
		b[0] = 1
	}
	binary.LittleEndian.PutUint16(b[0x02:], h.CLUT)
	binary.LittleEndian.PutUint16(b[0x04:], h.BitDepth)
	binary.LittleEndian.PutUint16(b[0x06:], h.Width)
	binary.LittleEndian.PutUint16(b[0x08:], h.Height)
	binary.LittleEndian.PutUint16(b[0x0a:], h.TW)
	binary.LittleEndian.PutUint16(b[0x0c:], h.TH)
	binary.LittleEndian.PutUint16(b[0x0e:], h.Hash)
	return b, nil
}

// UnmarshalBinary decodes the header from the first 16 bytes of b. No
// validation of the values is performed.
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrMalformedHeader, len(b))
	}
	*h = Header{
		Compressed: b[0] == 1,
		CLUT:       binary.LittleEndian.Uint16(b[0x02:]),
		BitDepth:   binary.LittleEndian.Uint16(b[0x04:]),
		Width:      binary.LittleEndian.Uint16(b[0x06:]),
		Height:     binary.LittleEndian.Uint16(b[0x08:]),
		TW:         binary.LittleEndian.Uint16(b[0x0a:]),
		TH:         binary.LittleEndian.Uint16(b[0x0c:]),
		Hash:       binary.LittleEndian.Uint16(b[0x0e:]),
	}
	return nil
}

package bin

import (
	"bytes"
	"io"

	"github.com/bodgit/ghoul/internal/bitstream"
	"github.com/bodgit/ghoul/sprite"
)

// Options are the encoding parameters. A nil *Options means compressed
// with all opaque header fields zero.
type Options struct {
	// Uncompressed writes the pixel data as is.
	Uncompressed bool
	// TW, TH and Hash are copied into the header.
	TW   uint16
	TH   uint16
	Hash uint16
}

// NewHeader builds the header describing s.
func NewHeader(s *sprite.Sprite, o *Options) Header {
	if o == nil {
		o = &Options{}
	}
	h := Header{
		Compressed: !o.Uncompressed,
		CLUT:       NoCLUT,
		BitDepth:   s.BitDepth,
		Width:      s.Width,
		Height:     s.Height,
		TW:         o.TW,
		TH:         o.TH,
		Hash:       o.Hash,
	}
	if s.HasPalette() {
		h.CLUT = EmbeddedCLUT
	}
	return h
}

// pixelData returns the bytes the engine stores for the pixels of s, nibble
// packed for 4 bit sprites.
func pixelData(s *sprite.Sprite) []byte {
	if s.BitDepth == sprite.Depth4 {
		return sprite.Pack(s.Pixels, sprite.LowFirst)
	}
	return s.Pixels
}

// Marshal encodes s as a complete BIN file.
func Marshal(s *sprite.Sprite, o *Options) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	h := NewHeader(s, o)
	header, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}

	b := new(bytes.Buffer)
	b.Write(header)
	b.Write(s.Palette)

	if !h.Compressed {
		b.Write(pixelData(s))
		return b.Bytes(), nil
	}

	payload := Compress(pixelData(s))

	var tmp [countSize]byte
	putCount(tmp[:], payload.Iterations)
	b.Write(tmp[:])
	b.Write(bitstream.SwapWords(payload.Stream))

	return b.Bytes(), nil
}

// Encode writes s to w in BIN format.
func Encode(w io.Writer, s *sprite.Sprite, o *Options) error {
	b, err := Marshal(s, o)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

package bin

import (
	"fmt"

	"github.com/bodgit/ghoul/internal/bitstream"
	"github.com/bodgit/ghoul/sprite"
)

type decoder struct {
	b   []byte
	h   Header
	pos int

	// Number of values decoded per packed byte
	scale int
	// Number of values to keep, a whole number of packed bytes
	units int

	palette []byte
	values  []byte
}

func newDecoder(b []byte, h Header) (*decoder, error) {
	if !sprite.ValidDepth(h.BitDepth) {
		return nil, fmt.Errorf("%w: %d", sprite.ErrInvalidBitDepth, h.BitDepth)
	}
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedHeader, len(b))
	}

	d := &decoder{
		b:     b,
		h:     h,
		pos:   HeaderSize,
		scale: int(8 / h.BitDepth),
		units: h.PixelCount(),
	}
	if h.BitDepth == sprite.Depth4 {
		d.units = sprite.PackedLen(d.units) << 1
	}
	return d, nil
}

func (d *decoder) readPalette() error {
	if !d.h.HasCLUT() {
		return nil
	}
	n := 4 * sprite.Colors(d.h.BitDepth)
	if d.pos+n > len(d.b) {
		return fmt.Errorf("%w: palette runs past end of file", ErrMalformedHeader)
	}
	d.palette = append([]byte(nil), d.b[d.pos:d.pos+n]...)
	d.pos += n
	return nil
}

func (d *decoder) readCount() (uint32, error) {
	if d.pos+countSize > len(d.b) {
		return 0, fmt.Errorf("%w: token count runs past end of file", ErrMalformedHeader)
	}
	n := count(d.b[d.pos:])
	d.pos += countSize
	return n, nil
}

func (d *decoder) readTokens(iterations uint32) error {
	r := bitstream.NewReader(bitstream.SwapWords(d.b[d.pos:]))

	depth := uint(d.h.BitDepth)
	literal := (16 + int(depth) - 1) / int(depth)
	window := windowSize * d.scale

	d.values = make([]byte, 0, d.units)

	for i := uint32(0); i < iterations; i++ {
		flag, err := r.ReadBit()
		if err != nil {
			return fmt.Errorf("%w: token %d of %d", ErrTruncatedBitstream, i, iterations)
		}

		if flag {
			for j := 0; j < literal; j++ {
				v, err := r.ReadBits(depth)
				if err != nil {
					return fmt.Errorf("%w: token %d of %d", ErrTruncatedBitstream, i, iterations)
				}
				// Discard the padding after the last pixel
				if len(d.values) < d.units {
					d.values = append(d.values, byte(v))
				}
			}
			continue
		}

		offset, err := r.ReadBits(offsetBits)
		if err != nil {
			return fmt.Errorf("%w: token %d of %d", ErrTruncatedBitstream, i, iterations)
		}
		length, err := r.ReadBits(lengthBits)
		if err != nil {
			return fmt.Errorf("%w: token %d of %d", ErrTruncatedBitstream, i, iterations)
		}

		origin := 0
		if len(d.values) > window {
			origin = len(d.values) - window
		}
		src := origin + int(offset)*d.scale
		if src >= len(d.values) {
			return fmt.Errorf("%w: token %d refers to %d of %d", ErrBadReference, i, src, len(d.values))
		}

		// The source may overlap what is being written
		for j, n := 0, (int(length)+minMatch)*d.scale; j < n; j++ {
			d.values = append(d.values, d.values[src+j])
		}
	}
	return nil
}

func (d *decoder) readUncompressed() error {
	n := d.units / d.scale
	if d.pos+n > len(d.b) {
		return fmt.Errorf("%w: pixel data runs past end of file", ErrMalformedHeader)
	}
	data := d.b[d.pos : d.pos+n]
	if d.scale == 1 {
		d.values = append([]byte(nil), data...)
	} else {
		d.values = sprite.Unpack(data, sprite.LowFirst)
	}
	d.pos += n
	return nil
}

func (d *decoder) result() *sprite.Sprite {
	pixels := make([]byte, d.h.PixelCount())
	copy(pixels, d.values)
	return &sprite.Sprite{
		Width:    d.h.Width,
		Height:   d.h.Height,
		BitDepth: d.h.BitDepth,
		Pixels:   pixels,
		Palette:  d.palette,
	}
}

// swapPairs exchanges each adjacent pair of values, turning the high nibble
// first order the bitstream yields into pixel order.
func swapPairs(v []byte) {
	for i := 0; i+1 < len(v); i += 2 {
		v[i], v[i+1] = v[i+1], v[i]
	}
}

// Decompress decodes the compressed pixel data of the BIN file b, which
// must start with the header h.
func Decompress(b []byte, h Header) (*sprite.Sprite, error) {
	d, err := newDecoder(b, h)
	if err != nil {
		return nil, err
	}
	if err := d.readPalette(); err != nil {
		return nil, err
	}
	iterations, err := d.readCount()
	if err != nil {
		return nil, err
	}
	if err := d.readTokens(iterations); err != nil {
		return nil, err
	}
	if h.BitDepth == sprite.Depth4 {
		swapPairs(d.values)
	}
	return d.result(), nil
}

// Unpacked decodes the uncompressed pixel data of the BIN file b, which
// must start with the header h.
func Unpacked(b []byte, h Header) (*sprite.Sprite, error) {
	d, err := newDecoder(b, h)
	if err != nil {
		return nil, err
	}
	if err := d.readPalette(); err != nil {
		return nil, err
	}
	if err := d.readUncompressed(); err != nil {
		return nil, err
	}
	return d.result(), nil
}

package ghoul

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/bodgit/ghoul/bin"
	"github.com/bodgit/ghoul/palette"
	"github.com/bodgit/ghoul/raw"
	"github.com/bodgit/ghoul/sprite"
	"golang.org/x/image/bmp"
)

var errTooLarge = errors.New("ghoul: image too large")

// spriteFromImage converts m to a sprite. Paletted images keep their
// indices and palette. Anything else holds index data as colour: the red
// channel becomes the index, ignoring alpha and the low byte of 16-bit
// samples, and there is no palette. With quantize set, colour images are
// instead reduced to 1<<depth colours. A zero depth picks 4 bits for
// paletted images using no more than 16 colours, otherwise 8.
func spriteFromImage(m image.Image, depth uint16, quantize bool) (*sprite.Sprite, error) {
	b := m.Bounds()
	if b.Dx() > 0xffff || b.Dy() > 0xffff {
		return nil, errTooLarge
	}

	var pm *image.Paletted
	switch m := m.(type) {
	case *image.Paletted:
		pm = m
	case *image.Gray, *image.Gray16:
		return spriteFromChannel(m, depth)
	default:
		if !quantize {
			return spriteFromChannel(m, depth)
		}
		n := sprite.Colors(sprite.Depth8)
		if depth != 0 {
			n = sprite.Colors(depth)
		}
		pm = palette.Quantize(m, n)
	}

	s := sprite.New(uint16(b.Dx()), uint16(b.Dy()), sprite.Depth8)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			s.Pixels[(y-b.Min.Y)*b.Dx()+x-b.Min.X] = pm.ColorIndexAt(x, y)
		}
	}

	if depth == 0 {
		depth = sprite.Depth8
		if len(pm.Palette) <= sprite.Colors(sprite.Depth4) && int(s.MaxIndex()) < sprite.Colors(sprite.Depth4) {
			depth = sprite.Depth4
		}
	}
	if err := s.SetBitDepth(depth); err != nil {
		return nil, err
	}
	s.Palette = palette.FromColors(pm.Palette, sprite.Colors(depth))

	return s, nil
}

// redAt returns the most significant byte of the red channel at (x, y),
// unaffected by alpha.
func redAt(m image.Image, x, y int) uint8 {
	switch m := m.(type) {
	case *image.Gray:
		return m.GrayAt(x, y).Y
	case *image.Gray16:
		return uint8(m.Gray16At(x, y).Y >> 8)
	case *image.NRGBA:
		return m.NRGBAAt(x, y).R
	case *image.NRGBA64:
		return uint8(m.NRGBA64At(x, y).R >> 8)
	case *image.RGBA:
		return m.RGBAAt(x, y).R
	case *image.RGBA64:
		return uint8(m.RGBA64At(x, y).R >> 8)
	default:
		return uint8(color.NRGBA64Model.Convert(m.At(x, y)).(color.NRGBA64).R >> 8)
	}
}

// spriteFromChannel reads the red channel of m as 8 bit indices, masked
// down to depth when one is given.
func spriteFromChannel(m image.Image, depth uint16) (*sprite.Sprite, error) {
	b := m.Bounds()
	s := sprite.New(uint16(b.Dx()), uint16(b.Dy()), sprite.Depth8)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			s.Pixels[(y-b.Min.Y)*b.Dx()+x-b.Min.X] = redAt(m, x, y)
		}
	}
	if depth != 0 {
		if err := s.SetBitDepth(depth); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// trimPalette drops palette entries past the highest index in use. BMP
// files always carry a full 256 colour table, which would otherwise hide
// a 4 bit sprite.
func trimPalette(m *image.Paletted) {
	var top uint8
	for _, v := range m.Pix {
		if v > top {
			top = v
		}
	}
	if int(top)+1 < len(m.Palette) {
		m.Palette = m.Palette[:int(top)+1]
	}
}

// imageFromSprite converts s to a paletted image, using a grayscale ramp
// when s has no palette.
func imageFromSprite(s *sprite.Sprite) *image.Paletted {
	p := palette.Grayscale(sprite.Colors(s.BitDepth))
	if s.HasPalette() {
		p = palette.ToColors(s.Palette)
	}

	m := image.NewPaletted(image.Rect(0, 0, int(s.Width), int(s.Height)), p)
	mask := byte(sprite.Colors(s.BitDepth) - 1)
	for i, v := range s.Pixels {
		m.Pix[i] = v & mask
	}
	return m
}

func readImage(r io.Reader, format Format, depth uint16, quantize bool) (*sprite.Sprite, error) {
	var m image.Image
	var err error
	switch format {
	case FormatPNG:
		m, err = png.Decode(r)
	case FormatBMP:
		if m, err = bmp.Decode(r); err == nil {
			if pm, ok := m.(*image.Paletted); ok {
				trimPalette(pm)
			}
		}
	default:
		return nil, errUnknownFormat
	}
	if err != nil {
		return nil, err
	}
	return spriteFromImage(m, depth, quantize)
}

// readSprite reads file in the given format. A non-zero depth is forced
// onto the result.
func readSprite(file string, format Format, depth uint16, quantize bool) (*sprite.Sprite, error) {
	var width, height uint16
	if format == FormatRAW {
		var err error
		if width, height, err = raw.Dimensions(file); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s *sprite.Sprite
	switch format {
	case FormatPNG, FormatBMP:
		return readImage(f, format, depth, quantize)
	case FormatRAW:
		s, err = raw.Decode(f, width, height)
	case FormatBIN:
		s, err = bin.Decode(f)
	default:
		return nil, errUnknownFormat
	}
	if err != nil {
		return nil, err
	}

	if depth != 0 && depth != s.BitDepth {
		if err := s.SetBitDepth(depth); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func writePNG(w io.Writer, s *sprite.Sprite, asRGB bool) error {
	m := imageFromSprite(s)
	switch {
	case asRGB:
		rgb := image.NewNRGBA(m.Bounds())
		for i, v := range m.Pix {
			c := color.NRGBAModel.Convert(m.Palette[v]).(color.NRGBA)
			copy(rgb.Pix[4*i:], []byte{c.R, c.G, c.B, c.A})
		}
		return png.Encode(w, rgb)
	case !s.HasPalette():
		gray := image.NewGray(m.Bounds())
		copy(gray.Pix, m.Pix)
		return png.Encode(w, gray)
	default:
		return png.Encode(w, m)
	}
}

// writeSprite writes s to w in the given format. BIN output has a zero
// header hash.
func writeSprite(w io.Writer, s *sprite.Sprite, format Format, o *Options) error {
	switch format {
	case FormatPNG:
		return writePNG(w, s, o.AsRGB)
	case FormatBMP:
		return bmp.Encode(w, imageFromSprite(s))
	case FormatRAW:
		return raw.Encode(w, s)
	case FormatBIN:
		return bin.Encode(w, s, &bin.Options{
			Uncompressed: o.Uncompressed,
		})
	default:
		return errUnknownFormat
	}
}

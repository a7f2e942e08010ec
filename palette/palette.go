/*
Package palette converts between the engine's RGBA palettes and Go colour
palettes, reads and writes Adobe Color Table (.act) files and reduces true
colour images to a fixed number of colours.

The engine stores each palette entry as four bytes, red, green, blue and
alpha, where an alpha of 0x80 is fully opaque.
*/
package palette

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

// Opaque is the engine's fully opaque alpha value.
const Opaque = 0x80

func toEngineAlpha(a uint8) uint8 {
	return uint8((uint(a)*Opaque + 127) / 0xff)
}

func fromEngineAlpha(a uint8) uint8 {
	if a >= Opaque {
		return 0xff
	}
	return uint8(uint(a) * 0xff / Opaque)
}

// FromColors converts p to an engine palette of exactly n entries. Missing
// entries are transparent black, extra entries are dropped.
func FromColors(p color.Palette, n int) []byte {
	b := make([]byte, 4*n)
	for i, c := range p {
		if i >= n {
			break
		}
		nc := color.NRGBAModel.Convert(c).(color.NRGBA)
		b[4*i+0] = nc.R
		b[4*i+1] = nc.G
		b[4*i+2] = nc.B
		b[4*i+3] = toEngineAlpha(nc.A)
	}
	return b
}

// ToColors converts an engine palette to a Go palette.
func ToColors(b []byte) color.Palette {
	p := make(color.Palette, len(b)/4)
	for i := range p {
		p[i] = color.NRGBA{
			R: b[4*i+0],
			G: b[4*i+1],
			B: b[4*i+2],
			A: fromEngineAlpha(b[4*i+3]),
		}
	}
	return p
}

// SynthesizeAlpha replaces the alpha of every entry of the engine palette
// b. Index 0 becomes transparent unless opaque is set, everything else is
// fully opaque.
func SynthesizeAlpha(b []byte, opaque bool) {
	for i := 3; i < len(b); i += 4 {
		b[i] = Opaque
	}
	if !opaque && len(b) >= 4 {
		b[3] = 0
	}
}

// Grayscale returns a palette of n grays where each entry's level is its
// own index.
func Grayscale(n int) color.Palette {
	p := make(color.Palette, n)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}

// Quantize reduces m to a paletted image of no more than n colours using a
// median cut.
func Quantize(m image.Image, n int) *image.Paletted {
	b := m.Bounds()
	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, n), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)
	return pm
}

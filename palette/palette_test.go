package palette

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineAlpha(t *testing.T) {
	assert.Equal(t, uint8(0), toEngineAlpha(0))
	assert.Equal(t, uint8(Opaque), toEngineAlpha(0xff))
	assert.Equal(t, uint8(0xff), fromEngineAlpha(Opaque))
	assert.Equal(t, uint8(0xff), fromEngineAlpha(0xff))
	assert.Equal(t, uint8(0), fromEngineAlpha(0))

	for a := 0; a <= Opaque; a++ {
		assert.Equal(t, uint8(a), toEngineAlpha(fromEngineAlpha(uint8(a))), "alpha %d", a)
	}
}

func TestColorsRoundTrip(t *testing.T) {
	b := []byte{
		0x10, 0x20, 0x30, 0x00,
		0x40, 0x50, 0x60, 0x80,
		0xff, 0xee, 0xdd, 0x40,
	}
	p := ToColors(b)
	require.Len(t, p, 3)
	assert.Equal(t, color.NRGBA{0x40, 0x50, 0x60, 0xff}, p[1])
	assert.Equal(t, b, FromColors(p, 3))
}

func TestFromColorsSize(t *testing.T) {
	p := color.Palette{color.White, color.Black}
	b := FromColors(p, 16)
	assert.Len(t, b, 64)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, Opaque, 0, 0, 0, Opaque, 0, 0, 0, 0}, b[:12])

	assert.Len(t, FromColors(Grayscale(256), 16), 64)
}

func TestSynthesizeAlpha(t *testing.T) {
	b := make([]byte, 12)
	SynthesizeAlpha(b, false)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, Opaque, 0, 0, 0, Opaque}, b)

	SynthesizeAlpha(b, true)
	assert.Equal(t, byte(Opaque), b[3])
}

func TestACTRoundTrip(t *testing.T) {
	p := make(color.Palette, 16)
	for i := range p {
		p[i] = color.NRGBA{uint8(i), uint8(i * 2), uint8(i * 3), 0xff}
	}
	p[5] = color.NRGBA{}

	buf := new(bytes.Buffer)
	require.NoError(t, EncodeACT(buf, p))
	assert.Equal(t, actSize+actTrailer, buf.Len())

	got, err := DecodeACT(buf)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestDecodeACTWithoutTrailer(t *testing.T) {
	b := make([]byte, actSize)
	b[3*255] = 0xff
	p, err := DecodeACT(bytes.NewReader(b))
	require.NoError(t, err)
	require.Len(t, p, 256)
	assert.Equal(t, color.NRGBA{0xff, 0, 0, 0xff}, p[255])
}

func TestDecodeACTInvalid(t *testing.T) {
	_, err := DecodeACT(bytes.NewReader(make([]byte, 100)))
	assert.Equal(t, errBadACT, err)
}

func TestQuantize(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			m.Set(x, y, color.NRGBA{uint8(x * 32), uint8(y * 32), 0x80, 0xff})
		}
	}

	pm := Quantize(m, 16)
	assert.LessOrEqual(t, len(pm.Palette), 16)
	assert.Equal(t, m.Bounds(), pm.Bounds())
}

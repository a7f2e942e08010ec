package bin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	tests := map[string]Header{
		"zero":       {},
		"compressed": {Compressed: true, CLUT: EmbeddedCLUT, BitDepth: 8, Width: 128, Height: 64},
		"edges":      {Compressed: false, CLUT: 0xffff, BitDepth: 0xffff, Width: 0, Height: 0xffff, TW: 0x1234, TH: 0x5678, Hash: 0xffff},
	}

	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			b, err := h.MarshalBinary()
			require.NoError(t, err)
			require.Len(t, b, HeaderSize)
			assert.Equal(t, byte(0), b[1])

			got, err := ParseHeader(b)
			require.NoError(t, err)
			assert.Equal(t, h, got)
		})
	}
}

func TestParseHeaderLayout(t *testing.T) {
	b := []byte{
		0x01, 0xaa, 0x20, 0x00, 0x04, 0x00, 0x10, 0x01,
		0x20, 0x00, 0x01, 0x02, 0x03, 0x04, 0xef, 0xbe,
	}
	h, err := ParseHeader(b)
	require.NoError(t, err)
	assert.Equal(t, Header{
		Compressed: true,
		CLUT:       EmbeddedCLUT,
		BitDepth:   4,
		Width:      0x110,
		Height:     0x20,
		TW:         0x0201,
		TH:         0x0403,
		Hash:       0xbeef,
	}, h)
	assert.True(t, h.HasCLUT())
	assert.Equal(t, 0x110*0x20, h.PixelCount())
}

func TestParseHeaderOnlyModeOneIsCompressed(t *testing.T) {
	b := make([]byte, HeaderSize)
	b[0] = 2
	h, err := ParseHeader(b)
	require.NoError(t, err)
	assert.False(t, h.Compressed)
}

func TestParseHeaderShort(t *testing.T) {
	_, err := ParseHeader(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

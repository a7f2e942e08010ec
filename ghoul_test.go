package ghoul

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/ghoul/bin"
	"github.com/bodgit/ghoul/catalog"
	"github.com/bodgit/ghoul/palette"
	"github.com/bodgit/ghoul/sprite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColors = color.Palette{
	color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff},
	color.NRGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff},
	color.NRGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff},
	color.NRGBA{R: 0x00, G: 0x00, B: 0xff, A: 0xff},
}

func writeTestPNG(t *testing.T, file string, w, h int, p color.Palette, pix []byte) {
	t.Helper()
	m := image.NewPaletted(image.Rect(0, 0, w, h), p)
	copy(m.Pix, pix)

	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, m))
}

func readBIN(t *testing.T, file string) (*sprite.Sprite, bin.Header) {
	t.Helper()
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	h, err := bin.ParseHeader(b)
	require.NoError(t, err)
	s, err := bin.Unmarshal(b)
	require.NoError(t, err)
	return s, h
}

func newConverter(t *testing.T, o Options, c *catalog.Catalog) *Converter {
	t.Helper()
	conv, err := New(o, c, zerolog.Nop())
	require.NoError(t, err)
	return conv
}

func pattern(n, mod int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 7 % mod)
	}
	return b
}

func TestNew(t *testing.T) {
	_, err := New(Options{BitDepth: 6}, nil, zerolog.Nop())
	assert.ErrorIs(t, err, sprite.ErrInvalidBitDepth)

	_, err = New(Options{PaletteFile: filepath.Join(t.TempDir(), "missing.act")}, nil, zerolog.Nop())
	assert.Error(t, err)

	out := filepath.Join(t.TempDir(), "a", "b")
	conv := newConverter(t, Options{OutputDir: out}, nil)
	assert.Equal(t, defaultWorkers, conv.opts.Workers)
	assert.DirExists(t, out)
}

func TestConvertPNGRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "ryu.png")
	pix := pattern(9*5, len(testColors))
	writeTestPNG(t, src, 9, 5, testColors, pix)

	binDir := filepath.Join(dir, "bin")
	conv := newConverter(t, Options{Target: FormatBIN, OutputDir: binDir, PaletteTransfer: true}, nil)
	out, err := conv.ConvertFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(binDir, "ryu.bin"), out)

	s, h := readBIN(t, out)
	assert.True(t, h.Compressed)
	assert.True(t, h.HasCLUT())
	assert.Equal(t, uint16(sprite.Depth4), s.BitDepth)
	assert.Equal(t, pix, s.Pixels)
	assert.Len(t, s.Palette, 4*16)
	assert.Equal(t, []byte{0xff, 0x00, 0x00, palette.Opaque}, s.Palette[4:8])

	pngDir := filepath.Join(dir, "png")
	conv = newConverter(t, Options{Target: FormatPNG, OutputDir: pngDir, PaletteTransfer: true}, nil)
	out, err = conv.ConvertFile(out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(pngDir, "ryu.png"), out)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	m, err := png.Decode(f)
	require.NoError(t, err)

	pm, ok := m.(*image.Paletted)
	require.True(t, ok)
	assert.Equal(t, pix, pm.Pix)
	for i, c := range testColors {
		assert.Equal(t, color.NRGBAModel.Convert(c), color.NRGBAModel.Convert(pm.Palette[i]))
	}
}

func TestConvertWithoutPalette(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "ken.png")
	pix := pattern(4*4, len(testColors))
	writeTestPNG(t, src, 4, 4, testColors, pix)

	conv := newConverter(t, Options{Target: FormatBIN, OutputDir: dir}, nil)
	out, err := conv.ConvertFile(src)
	require.NoError(t, err)

	s, h := readBIN(t, out)
	assert.False(t, h.HasCLUT())
	assert.False(t, s.HasPalette())
	assert.Equal(t, pix, s.Pixels)
}

func TestConvertRAW(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sol.png")
	colors := make(color.Palette, 40)
	for i := range colors {
		colors[i] = color.NRGBA{R: uint8(i * 6), A: 0xff}
	}
	pix := pattern(7*3, len(colors))
	writeTestPNG(t, src, 7, 3, colors, pix)

	conv := newConverter(t, Options{Target: FormatRAW, OutputDir: dir}, nil)
	out, err := conv.ConvertFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sol-W-7-H-3.raw"), out)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, pix, b)

	binDir := filepath.Join(dir, "bin")
	conv = newConverter(t, Options{Target: FormatBIN, OutputDir: binDir, Uncompressed: true}, nil)
	out, err = conv.ConvertFile(out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(binDir, "sol-W-7-H-3.bin"), out)

	s, h := readBIN(t, out)
	assert.False(t, h.Compressed)
	assert.Equal(t, uint16(7), h.Width)
	assert.Equal(t, uint16(3), h.Height)
	assert.Equal(t, uint16(sprite.Depth8), s.BitDepth)
	assert.Equal(t, pix, s.Pixels)

	// RAW to RAW keeps the name
	rawDir := filepath.Join(dir, "raw")
	conv = newConverter(t, Options{Target: FormatRAW, OutputDir: rawDir}, nil)
	out, err = conv.ConvertFile(filepath.Join(dir, "sol-W-7-H-3.raw"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rawDir, "sol-W-7-H-3.raw"), out)

	_, err = conv.ConvertFile(filepath.Join(dir, "sol.txt"))
	assert.Error(t, err)
}

func TestConvertExists(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "may-W-2-H-2.raw")
	require.NoError(t, os.WriteFile(src, []byte{1, 2, 3, 4}, 0644))

	out := filepath.Join(dir, "out")
	conv := newConverter(t, Options{Target: FormatBIN, OutputDir: out}, nil)
	target, err := conv.ConvertFile(src)
	require.NoError(t, err)

	before, err := os.ReadFile(target)
	require.NoError(t, err)

	again, err := conv.ConvertFile(src)
	assert.ErrorIs(t, err, ErrExists)
	assert.Equal(t, target, again)

	after, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	conv = newConverter(t, Options{Target: FormatBIN, OutputDir: out, Overwrite: true, Uncompressed: true}, nil)
	_, err = conv.ConvertFile(src)
	require.NoError(t, err)

	_, h := readBIN(t, target)
	assert.False(t, h.Compressed)
}

func TestConvertPaletteFile(t *testing.T) {
	dir := t.TempDir()

	act := filepath.Join(dir, "p1.act")
	f, err := os.Create(act)
	require.NoError(t, err)
	require.NoError(t, palette.EncodeACT(f, color.Palette{
		color.NRGBA{R: 10, G: 20, B: 30, A: 0xff},
		color.NRGBA{R: 40, G: 50, B: 60, A: 0xff},
	}))
	require.NoError(t, f.Close())

	src := filepath.Join(dir, "axl-W-2-H-1.raw")
	require.NoError(t, os.WriteFile(src, []byte{0, 1}, 0644))

	for _, opaque := range []bool{false, true} {
		out := filepath.Join(dir, "out", map[bool]string{false: "alpha", true: "opaque"}[opaque])
		conv := newConverter(t, Options{Target: FormatBIN, OutputDir: out, PaletteFile: act, Opaque: opaque}, nil)
		target, err := conv.ConvertFile(src)
		require.NoError(t, err)

		s, h := readBIN(t, target)
		assert.True(t, h.HasCLUT())
		require.Len(t, s.Palette, 4*256)

		alpha := byte(0)
		if opaque {
			alpha = palette.Opaque
		}
		assert.Equal(t, []byte{10, 20, 30, alpha}, s.Palette[0:4])
		assert.Equal(t, []byte{40, 50, 60, palette.Opaque}, s.Palette[4:8])
		assert.Equal(t, []byte{0, 0, 0, palette.Opaque}, s.Palette[8:12])
	}
}

func TestConvertExportPalette(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "faust.png")
	writeTestPNG(t, src, 2, 2, testColors, []byte{0, 1, 2, 3})

	conv := newConverter(t, Options{Target: FormatBIN, OutputDir: dir, PaletteTransfer: true, ExportPalette: true}, nil)
	_, err := conv.ConvertFile(src)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "faust.act"))
	require.NoError(t, err)
	defer f.Close()

	p, err := palette.DecodeACT(f)
	require.NoError(t, err)
	require.Len(t, p, 16)
	assert.Equal(t, color.NRGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}, p[2])
}

func TestConvertReindex(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "zato-W-4-H-1.raw")
	require.NoError(t, os.WriteFile(src, []byte{7, 8, 16, 24}, 0644))

	conv := newConverter(t, Options{Target: FormatBIN, OutputDir: dir, Reindex: true}, nil)
	out, err := conv.ConvertFile(src)
	require.NoError(t, err)

	s, _ := readBIN(t, out)
	assert.Equal(t, []byte{7, 16, 8, 24}, s.Pixels)

	// 4 bit sprites are left alone
	out4 := filepath.Join(dir, "4bpp")
	conv = newConverter(t, Options{Target: FormatBIN, OutputDir: out4, Reindex: true, BitDepth: sprite.Depth4}, nil)
	out, err = conv.ConvertFile(src)
	require.NoError(t, err)

	s, _ = readBIN(t, out)
	assert.Equal(t, uint16(sprite.Depth4), s.BitDepth)
	assert.Equal(t, []byte{7, 8, 0, 8}, s.Pixels)
}

func TestConvertHash(t *testing.T) {
	pixels := [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 11, 12}}

	tables := map[string]struct {
		mode HashMode
		hash uint16
		want func(int, []byte) uint16
	}{
		"preset": {
			mode: HashPreset,
			hash: 0xbeef,
			want: func(int, []byte) uint16 { return 0xbeef },
		},
		"incremental": {
			mode: HashIncremental,
			hash: 0xfffe,
			want: func(i int, _ []byte) uint16 { return uint16(0xfffe + i) },
		},
		"generate": {
			mode: HashGenerate,
			want: func(_ int, b []byte) uint16 {
				h, _ := generatedHash{}.next(&sprite.Sprite{Pixels: b})
				return h
			},
		},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			conv := newConverter(t, Options{Target: FormatBIN, OutputDir: filepath.Join(dir, "out"), HashMode: table.mode, Hash: table.hash}, nil)

			for i, b := range pixels {
				src := filepath.Join(dir, raw4(i))
				require.NoError(t, os.WriteFile(src, b, 0644))

				out, err := conv.ConvertFile(src)
				require.NoError(t, err)

				_, h := readBIN(t, out)
				assert.Equal(t, table.want(i, b), h.Hash)
			}
		})
	}
}

func raw4(i int) string {
	return string(rune('a'+i)) + "-W-2-H-2.raw"
}

func TestConvertHashCatalog(t *testing.T) {
	dir := t.TempDir()
	c, err := catalog.Open(filepath.Join(dir, "ghoul.db"))
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 2; i++ {
		src := filepath.Join(dir, raw4(i))
		require.NoError(t, os.WriteFile(src, []byte{1, 2, 3, 4}, 0644))
	}

	// A second converter on the same catalog carries on counting
	for i := 0; i < 2; i++ {
		conv := newConverter(t, Options{Target: FormatBIN, OutputDir: filepath.Join(dir, "out"), HashMode: HashIncremental, Hash: 100}, c)
		out, err := conv.ConvertFile(filepath.Join(dir, raw4(i)))
		require.NoError(t, err)

		_, h := readBIN(t, out)
		assert.Equal(t, uint16(100+i), h.Hash)
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	c, err := catalog.Open(filepath.Join(dir, "ghoul.db"))
	require.NoError(t, err)
	defer c.Close()

	src := filepath.Join(dir, "eddie.png")
	writeTestPNG(t, src, 5, 5, testColors, pattern(25, len(testColors)))

	conv := newConverter(t, Options{Target: FormatBIN, OutputDir: filepath.Join(dir, "out"), PaletteTransfer: true}, c)
	out, err := conv.ConvertFile(src)
	require.NoError(t, err)

	assert.NoError(t, conv.Verify(out))
	assert.ErrorIs(t, conv.Verify(src), catalog.ErrNotFound)

	// Rewrite the file with different pixels behind the catalog's back
	s, _ := readBIN(t, out)
	s.Pixels[0] ^= 1
	b, err := bin.Marshal(s, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(out, b, 0644))

	assert.ErrorIs(t, conv.Verify(out), catalog.ErrMismatch)

	conv = newConverter(t, Options{}, nil)
	assert.Error(t, conv.Verify(out))
}

func TestConvertRGBRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pix := []byte{0, 3, 7, 20, 40, 100, 200, 255}
	src := filepath.Join(dir, "jam-W-8-H-1.raw")
	require.NoError(t, os.WriteFile(src, pix, 0644))

	conv := newConverter(t, Options{Target: FormatBIN, OutputDir: filepath.Join(dir, "bin")}, nil)
	out, err := conv.ConvertFile(src)
	require.NoError(t, err)

	conv = newConverter(t, Options{Target: FormatPNG, OutputDir: filepath.Join(dir, "png"), AsRGB: true}, nil)
	out, err = conv.ConvertFile(out)
	require.NoError(t, err)

	conv = newConverter(t, Options{Target: FormatBIN, OutputDir: filepath.Join(dir, "again")}, nil)
	out, err = conv.ConvertFile(out)
	require.NoError(t, err)

	s, h := readBIN(t, out)
	assert.False(t, h.HasCLUT())
	assert.Equal(t, uint16(sprite.Depth8), s.BitDepth)
	assert.Equal(t, pix, s.Pixels)
}

func TestEncodeHashOnlyOnSuccess(t *testing.T) {
	conv := newConverter(t, Options{OutputDir: t.TempDir(), HashMode: HashIncremental, Hash: 7}, nil)

	bad := &sprite.Sprite{Width: 2, Height: 2, BitDepth: sprite.Depth8, Pixels: []byte{1}}
	_, _, err := conv.encode(bad, FormatBIN)
	assert.ErrorIs(t, err, sprite.ErrPixelCount)

	// Non-BIN output doesn't take a hash either
	good := &sprite.Sprite{Width: 2, Height: 1, BitDepth: sprite.Depth8, Pixels: []byte{1, 2}}
	_, hash, err := conv.encode(good, FormatRAW)
	require.NoError(t, err)
	assert.Zero(t, hash)

	b, hash, err := conv.encode(good, FormatBIN)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), hash)

	h, err := bin.ParseHeader(b)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), h.Hash)

	s, err := bin.Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, good.Pixels, s.Pixels)
}

/*
Package sprite holds the in-memory representation of an indexed colour
sprite as used by the engine, independent of any on-disk format.

A sprite is a rectangle of palette indices, one byte per pixel, with an
optional palette of RGBA quads. Only 4 and 8 bit indices are supported; a 4
bit sprite still stores one pixel per byte and is only nibble packed at the
point it is written out.
*/
package sprite

import (
	"errors"
	"fmt"
)

// Supported bit depths.
const (
	Depth4 uint16 = 4
	Depth8 uint16 = 8
)

var (
	// ErrInvalidBitDepth is returned for any bit depth other than 4 or 8.
	ErrInvalidBitDepth = errors.New("sprite: invalid bit depth")
	// ErrPaletteSize is returned when a palette does not hold exactly
	// 1<<BitDepth RGBA entries.
	ErrPaletteSize = errors.New("sprite: invalid palette size")
	// ErrPixelCount is returned when the number of pixels does not match
	// the dimensions.
	ErrPixelCount = errors.New("sprite: pixel count does not match dimensions")
)

// Sprite is an indexed colour image.
type Sprite struct {
	Width    uint16
	Height   uint16
	BitDepth uint16
	// Pixels holds one palette index per pixel, row by row.
	Pixels []byte
	// Palette is either empty or 4<<BitDepth bytes of RGBA.
	Palette []byte
}

// New returns a blank sprite of the given size.
func New(width, height, bitDepth uint16) *Sprite {
	return &Sprite{
		Width:    width,
		Height:   height,
		BitDepth: bitDepth,
		Pixels:   make([]byte, int(width)*int(height)),
	}
}

// ValidDepth reports whether d is a supported bit depth.
func ValidDepth(d uint16) bool {
	return d == Depth4 || d == Depth8
}

// Colors returns the number of palette entries for bit depth d.
func Colors(d uint16) int {
	return 1 << d
}

// PixelCount returns Width*Height.
func (s *Sprite) PixelCount() int {
	return int(s.Width) * int(s.Height)
}

// HasPalette reports whether the sprite carries its own palette.
func (s *Sprite) HasPalette() bool {
	return len(s.Palette) > 0
}

// Validate checks the sprite is internally consistent.
func (s *Sprite) Validate() error {
	if !ValidDepth(s.BitDepth) {
		return fmt.Errorf("%w: %d", ErrInvalidBitDepth, s.BitDepth)
	}
	if len(s.Pixels) != s.PixelCount() {
		return fmt.Errorf("%w: have %d, want %d", ErrPixelCount, len(s.Pixels), s.PixelCount())
	}
	if s.HasPalette() && len(s.Palette) != 4*Colors(s.BitDepth) {
		return fmt.Errorf("%w: %d bytes for %d bit", ErrPaletteSize, len(s.Palette), s.BitDepth)
	}
	return nil
}

// SetBitDepth changes the bit depth of the sprite. Pixel values are masked
// to the new depth and any palette is truncated or padded with transparent
// black to fit.
func (s *Sprite) SetBitDepth(d uint16) error {
	if !ValidDepth(d) {
		return fmt.Errorf("%w: %d", ErrInvalidBitDepth, d)
	}
	s.BitDepth = d
	mask := byte(Colors(d) - 1)
	for i, p := range s.Pixels {
		s.Pixels[i] = p & mask
	}
	if s.HasPalette() {
		p := make([]byte, 4*Colors(d))
		copy(p, s.Palette)
		s.Palette = p
	}
	return nil
}

// MaxIndex returns the largest palette index used by any pixel.
func (s *Sprite) MaxIndex() byte {
	var m byte
	for _, p := range s.Pixels {
		if p > m {
			m = p
		}
	}
	return m
}

// Clone returns a deep copy of the sprite.
func (s *Sprite) Clone() *Sprite {
	dup := *s
	dup.Pixels = append([]byte(nil), s.Pixels...)
	if s.Palette != nil {
		dup.Palette = append([]byte(nil), s.Palette...)
	}
	return &dup
}

/*
Package raw implements the RAW sprite format, a bare dump of one palette
index per pixel with no header. The dimensions travel in the filename as
"-W-<width>-H-<height>" tokens, for example "ryu_0001-W-128-H-96.raw".
*/
package raw

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/ghoul/sprite"
)

// Ext is the filename extension for RAW sprites.
const Ext = ".raw"

// ErrNoDimensions is returned when a filename does not carry both a width
// and a height.
var ErrNoDimensions = errors.New("raw: width or height missing from filename")

// Dimensions parses the width and height tokens out of the filename.
func Dimensions(file string) (uint16, uint16, error) {
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)))
	pieces := strings.Split(stem, "-")

	var width, height uint16
	for i := 0; i+1 < len(pieces); i++ {
		v, err := strconv.ParseUint(pieces[i+1], 10, 16)
		if err != nil {
			continue
		}
		switch pieces[i] {
		case "w":
			width = uint16(v)
		case "h":
			height = uint16(v)
		}
	}

	if width == 0 || height == 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrNoDimensions, filepath.Base(file))
	}
	return width, height, nil
}

// Filename returns the RAW filename for a sprite converted from the file
// with the given stem.
func Filename(stem string, width, height uint16) string {
	return fmt.Sprintf("%s-W-%d-H-%d%s", stem, width, height, Ext)
}

// Decode reads width*height pixels from r as an 8 bit sprite. Missing
// pixels are an error, trailing data is ignored.
func Decode(r io.Reader, width, height uint16) (*sprite.Sprite, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	s := sprite.New(width, height, sprite.Depth8)
	if len(b) < len(s.Pixels) {
		return nil, fmt.Errorf("raw: have %d pixels, want %d", len(b), len(s.Pixels))
	}
	copy(s.Pixels, b)

	return s, nil
}

// Encode writes the pixels of s to w.
func Encode(w io.Writer, s *sprite.Sprite) error {
	_, err := w.Write(s.Pixels)
	return err
}

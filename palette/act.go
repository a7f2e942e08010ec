package palette

import (
	"encoding/binary"
	"errors"
	"image/color"
	"io"
	"io/ioutil"
)

const (
	actColors  = 256
	actSize    = actColors * 3
	actTrailer = 4

	noTransparent = 0xffff
)

var errBadACT = errors.New("palette: invalid ACT file")

// DecodeACT reads an Adobe Color Table. The optional trailer giving the
// number of colours and a transparent index is honoured when present.
func DecodeACT(r io.Reader) (color.Palette, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(b) != actSize && len(b) != actSize+actTrailer {
		return nil, errBadACT
	}

	n, transparent := actColors, noTransparent
	if len(b) == actSize+actTrailer {
		n = int(binary.BigEndian.Uint16(b[actSize:]))
		transparent = int(binary.BigEndian.Uint16(b[actSize+2:]))
		if n == 0 || n > actColors {
			n = actColors
		}
	}

	p := make(color.Palette, n)
	for i := range p {
		c := color.NRGBA{R: b[3*i], G: b[3*i+1], B: b[3*i+2], A: 0xff}
		if i == transparent {
			c.A = 0
		}
		p[i] = c
	}
	return p, nil
}

// EncodeACT writes p as an Adobe Color Table with the colour count
// trailer. The first fully transparent entry, if any, is recorded as the
// transparent index.
func EncodeACT(w io.Writer, p color.Palette) error {
	if len(p) > actColors {
		return errBadACT
	}

	var b [actSize + actTrailer]byte
	transparent := noTransparent
	for i, c := range p {
		nc := color.NRGBAModel.Convert(c).(color.NRGBA)
		b[3*i+0] = nc.R
		b[3*i+1] = nc.G
		b[3*i+2] = nc.B
		if nc.A == 0 && transparent == noTransparent {
			transparent = i
		}
	}
	binary.BigEndian.PutUint16(b[actSize:], uint16(len(p)))
	binary.BigEndian.PutUint16(b[actSize+2:], uint16(transparent))

	_, err := w.Write(b[:])
	return err
}

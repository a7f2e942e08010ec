package bin

import (
	"io"
	"io/ioutil"

	"github.com/bodgit/ghoul/sprite"
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Unmarshal decodes a complete BIN file held in b.
func Unmarshal(b []byte) (*sprite.Sprite, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	if h.Compressed {
		return Decompress(b, h)
	}
	return Unpacked(b, h)
}

// Decode reads a BIN sprite from r.
func Decode(r io.Reader) (*sprite.Sprite, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(b)
}

// DecodeConfig returns the header of a BIN sprite without decoding the
// pixel data.
func DecodeConfig(r io.Reader) (Header, error) {
	var b [HeaderSize]byte
	if err := readFull(r, b[:]); err != nil {
		if err != io.ErrUnexpectedEOF {
			return Header{}, err
		}
		return Header{}, ErrMalformedHeader
	}
	return ParseHeader(b[:])
}

/*
Package bin implements the engine's native BIN sprite decoder and encoder.

A BIN file starts with a 16 byte little-endian header describing the
dimensions and bit depth, optionally followed by a palette of 4<<bitDepth
bytes of RGBA. The pixel data follows either uncompressed, as one byte per
pixel or two 4 bit pixels per byte, or compressed with an LZ style scheme.

The compressed form is a 32-bit token count, stored as two little-endian
16-bit halves with the high half first, followed by a most-significant-bit-
first stream of tokens. A token is either a literal, flag bit 1 followed by
16 bits of pixel data, or a back-reference, flag bit 0 followed by a 9-bit
offset into a 512 byte window and a 7-bit length biased by 3. The stream is
padded with 0xFF to a 16 byte boundary, counting from 20 bytes before it,
and every 16-bit word of it is byte swapped on disk.

Back-references are always measured in packed bytes, so for 4 bit sprites
the window, offset and length all cover twice as many pixels.
*/
package bin

import "errors"

const (
	// HeaderSize is the fixed size of the BIN header in bytes.
	HeaderSize = 16

	// NoCLUT marks a file without an embedded palette.
	NoCLUT uint16 = 0x0000
	// EmbeddedCLUT marks a file with a palette following the header.
	EmbeddedCLUT uint16 = 0x0020

	countSize = 4

	windowSize = 512
	windowScan = 510
	minMatch   = 3
	maxMatch   = 130
	minMatchAt = 4
	offsetBits = 9
	lengthBits = 7

	// The stream is aligned as if it started 20 bytes into the file,
	// after the header and the token count.
	alignBase = HeaderSize + countSize
	alignment = 16
)

var (
	// ErrMalformedHeader is returned when the file is too short for its
	// header, palette, token count or uncompressed pixel data.
	ErrMalformedHeader = errors.New("bin: malformed header")
	// ErrTruncatedBitstream is returned when the token stream ends before
	// the expected number of tokens has been read.
	ErrTruncatedBitstream = errors.New("bin: truncated bitstream")
	// ErrBadReference is returned when a back-reference points outside
	// the pixels decoded so far.
	ErrBadReference = errors.New("bin: back-reference outside decoded data")
)

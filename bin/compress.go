package bin

import "github.com/bodgit/ghoul/internal/bitstream"

// Payload is the compressed token stream before it is framed on disk.
// Stream is neither word swapped nor preceded by the token count.
type Payload struct {
	Iterations uint32
	Stream     []byte
}

// findMatch returns the longest run at p that repeats earlier data. Every
// offset from the window origin is tried in ascending order and a later
// offset only wins with a strictly longer run. The scan stops two short of
// the full window, which the engine's own tooling does too and which
// changes the output.
func findMatch(data []byte, p int) (offset, length int) {
	origin := 0
	if p > windowSize {
		origin = p - windowSize
	}

	limit := maxMatch
	if r := len(data) - p; r < limit {
		limit = r
	}

	for o := 0; o < windowScan; o++ {
		src := origin + o
		if src >= p {
			break
		}
		n := 0
		for n < limit && src+n < p && data[src+n] == data[p+n] {
			n++
		}
		if n > length {
			offset, length = o, n
		}
	}
	return
}

// Compress encodes data, which is either 8 bit pixels or nibble packed 4
// bit pixels, into a token stream.
func Compress(data []byte) Payload {
	w := bitstream.NewWriter()

	var iterations uint32
	for p := 0; p < len(data); iterations++ {
		if p >= minMatchAt && len(data)-p >= minMatch {
			if offset, length := findMatch(data, p); length >= minMatch {
				w.WriteBit(false)
				w.WriteBits(uint32(offset), offsetBits)
				w.WriteBits(uint32(length-minMatch), lengthBits)
				p += length
				continue
			}
		}

		w.WriteBit(true)
		w.WriteBits(uint32(data[p]), 8)
		if p+1 < len(data) {
			w.WriteBits(uint32(data[p+1]), 8)
		} else {
			w.WriteBits(0, 8)
		}
		p += 2
	}

	stream := w.Bytes()

	// Always between 1 and 16 bytes, never zero
	for n := alignment - (len(stream)+alignBase)%alignment; n > 0; n-- {
		stream = append(stream, 0xff)
	}

	return Payload{
		Iterations: iterations,
		Stream:     stream,
	}
}

// putCount stores the token count as two little-endian 16-bit words, high
// word first.
func putCount(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 24)
	b[2] = byte(v)
	b[3] = byte(v >> 8)
}

func count(b []byte) uint32 {
	return uint32(b[1])<<24 | uint32(b[0])<<16 | uint32(b[3])<<8 | uint32(b[2])
}

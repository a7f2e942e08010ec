package sprite

// NibbleOrder selects which half of a packed byte holds the first of two
// 4 bit pixels. Every Pack must be paired with an Unpack using the same
// order.
type NibbleOrder int

const (
	// LowFirst stores the first pixel in the low nibble. This is the
	// order the engine uses on disk.
	LowFirst NibbleOrder = iota
	// HighFirst stores the first pixel in the high nibble, as BMP and
	// most display formats do.
	HighFirst
)

func (o NibbleOrder) String() string {
	switch o {
	case LowFirst:
		return "low-first"
	case HighFirst:
		return "high-first"
	default:
		return "unknown"
	}
}

// PackedLen returns the number of bytes n 4 bit pixels pack into.
func PackedLen(n int) int {
	return (n + 1) >> 1
}

// Unpack splits every byte of b into two pixels, returning exactly
// 2*len(b) values.
func Unpack(b []byte, order NibbleOrder) []byte {
	pixels := make([]byte, len(b)<<1)
	for i, v := range b {
		hi, lo := v>>4, v&0x0f
		if order == HighFirst {
			pixels[i<<1], pixels[i<<1+1] = hi, lo
		} else {
			pixels[i<<1], pixels[i<<1+1] = lo, hi
		}
	}
	return pixels
}

// Pack combines pairs of pixels into single bytes. Each value is masked to
// 4 bits. An odd trailing pixel is paired with a zero nibble.
func Pack(pixels []byte, order NibbleOrder) []byte {
	b := make([]byte, PackedLen(len(pixels)))
	for i := range b {
		first := pixels[i<<1] & 0x0f
		var second byte
		if i<<1+1 < len(pixels) {
			second = pixels[i<<1+1] & 0x0f
		}
		if order == HighFirst {
			b[i] = first<<4 | second
		} else {
			b[i] = second<<4 | first
		}
	}
	return b
}

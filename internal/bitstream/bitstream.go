/*
Package bitstream implements the most-significant-bit-first bit writer and
reader used by the BIN sprite format, along with the 16-bit word swap the
engine applies to the packed stream on disk.
*/
package bitstream

import "io"

// Writer accumulates bits most significant first.
type Writer struct {
	buf []byte
	acc uint32
	n   uint
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// WriteBits writes the low n bits of v, n must be no more than 24.
func (w *Writer) WriteBits(v uint32, n uint) {
	w.acc = w.acc<<n | v&(1<<n-1)
	w.n += n
	for w.n >= 8 {
		w.n -= 8
		w.buf = append(w.buf, byte(w.acc>>w.n))
	}
	w.acc &= 1<<w.n - 1
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(b bool) {
	if b {
		w.WriteBits(1, 1)
	} else {
		w.WriteBits(0, 1)
	}
}

// Align pads any partial byte with zero bits.
func (w *Writer) Align() {
	if w.n > 0 {
		w.WriteBits(0, 8-w.n)
	}
}

// Bytes aligns the stream and returns the written bytes.
func (w *Writer) Bytes() []byte {
	w.Align()
	return w.buf
}

// Reader consumes bits most significant first.
type Reader struct {
	data []byte
	pos  int
	acc  uint32
	n    uint
}

// NewReader returns a Reader over b.
func NewReader(b []byte) *Reader {
	return &Reader{data: b}
}

// ReadBits reads n bits, n must be no more than 24. It returns
// io.ErrUnexpectedEOF if the data runs out.
func (r *Reader) ReadBits(n uint) (uint32, error) {
	for r.n < n {
		if r.pos >= len(r.data) {
			return 0, io.ErrUnexpectedEOF
		}
		r.acc = r.acc<<8 | uint32(r.data[r.pos])
		r.pos++
		r.n += 8
	}
	r.n -= n
	v := r.acc >> r.n & (1<<n - 1)
	r.acc &= 1<<r.n - 1
	return v, nil
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

// SwapWords returns a copy of b with every pair of bytes exchanged. A
// trailing odd byte is copied unchanged. The operation is its own inverse.
func SwapWords(b []byte) []byte {
	out := make([]byte, len(b))
	i := 0
	for ; i+1 < len(b); i += 2 {
		out[i], out[i+1] = b[i+1], b[i]
	}
	if i < len(b) {
		out[i] = b[i]
	}
	return out
}

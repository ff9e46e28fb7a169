package bitstream

import "errors"

var (
	// ErrShortRead indicates the stream ended before the requested bits
	ErrShortRead = errors.New("not enough bits in stream")
	// ErrInvalidWidth indicates a field width outside [1, 32]
	ErrInvalidWidth = errors.New("field width must be between 1 and 32 bits")
)

// Writer packs fixed-width fields into bytes, MSB first.
// Trailing bits of the last byte are zero.
type Writer struct {
	buf   []byte
	nbits int
}

// NewWriter returns a writer with room for sizeHint bytes
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// WriteBits appends the low n bits of v
func (w *Writer) WriteBits(v uint32, n int) error {
	if n < 1 || n > 32 {
		return ErrInvalidWidth
	}
	for i := n - 1; i >= 0; i-- {
		if w.nbits%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if (v>>uint(i))&1 == 1 {
			w.buf[len(w.buf)-1] |= 1 << uint(7-w.nbits%8)
		}
		w.nbits++
	}
	return nil
}

// WriteSigned appends v as an n-bit two's complement field
func (w *Writer) WriteSigned(v int32, n int) error {
	return w.WriteBits(uint32(v), n)
}

// Bytes returns the packed stream
func (w *Writer) Bytes() []byte { return w.buf }

// Reader unpacks fixed-width fields written by Writer
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a reader over data
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadBits reads an n-bit unsigned field
func (r *Reader) ReadBits(n int) (uint32, error) {
	if n < 1 || n > 32 {
		return 0, ErrInvalidWidth
	}
	if r.pos+n > len(r.data)*8 {
		return 0, ErrShortRead
	}
	var v uint32
	for i := 0; i < n; i++ {
		bit := (r.data[r.pos/8] >> uint(7-r.pos%8)) & 1
		v = v<<1 | uint32(bit)
		r.pos++
	}
	return v, nil
}

// ReadSigned reads an n-bit two's complement field
func (r *Reader) ReadSigned(n int) (int32, error) {
	v, err := r.ReadBits(n)
	if err != nil {
		return 0, err
	}
	// sign-extend
	shift := uint(32 - n)
	return int32(v<<shift) >> shift, nil
}

// Remaining returns the number of unread bits
func (r *Reader) Remaining() int { return len(r.data)*8 - r.pos }

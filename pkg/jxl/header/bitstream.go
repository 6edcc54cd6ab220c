package header

import (
	"io"
)

// BitReader reads bits from a byte slice, least significant bit first,
// which is the JPEG XL bit order.
type BitReader struct {
	data []byte
	pos  int    // next byte to load
	buf  uint64 // Bit buffer
	bits int    // Number of valid bits in buffer
	read int64  // Bits consumed so far
}

// NewBitReader creates a new bit reader over data
func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

// ReadBits reads n bits (n <= 32)
func (b *BitReader) ReadBits(n int) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	for b.bits < n {
		if b.pos >= len(b.data) {
			return 0, io.ErrUnexpectedEOF
		}
		b.buf |= uint64(b.data[b.pos]) << b.bits
		b.pos++
		b.bits += 8
	}
	val := uint32(b.buf & (1<<n - 1))
	b.buf >>= n
	b.bits -= n
	b.read += int64(n)
	return val, nil
}

// ReadBool reads a single bit as a boolean
func (b *BitReader) ReadBool() (bool, error) {
	v, err := b.ReadBits(1)
	return v == 1, err
}

// Skip discards n bits
func (b *BitReader) Skip(n uint64) error {
	if n > uint64(b.Remaining()) {
		return io.ErrUnexpectedEOF
	}
	for n > 0 {
		step := 32
		if n < 32 {
			step = int(n)
		}
		if _, err := b.ReadBits(step); err != nil {
			return err
		}
		n -= uint64(step)
	}
	return nil
}

// Align discards bits to reach the next byte boundary
func (b *BitReader) Align() {
	drop := b.bits % 8
	b.buf >>= drop
	b.bits -= drop
	b.read += int64(drop)
}

// BitsRead returns the number of bits consumed so far
func (b *BitReader) BitsRead() int64 {
	return b.read
}

// Remaining returns the number of unread bits
func (b *BitReader) Remaining() int64 {
	return int64(len(b.data)-b.pos)*8 + int64(b.bits)
}

// BitWriter writes bits least significant bit first
type BitWriter struct {
	out  []byte
	buf  uint64 // Bit buffer
	bits int    // Number of valid bits in buffer
}

// NewBitWriter creates a new bit writer
func NewBitWriter() *BitWriter {
	return &BitWriter{}
}

// WriteBits writes the low n bits of val (n <= 32)
func (b *BitWriter) WriteBits(val uint32, n int) {
	if n == 0 {
		return
	}
	b.buf |= (uint64(val) & (1<<n - 1)) << b.bits
	b.bits += n
	for b.bits >= 8 {
		b.out = append(b.out, byte(b.buf))
		b.buf >>= 8
		b.bits -= 8
	}
}

// WriteBool writes a single bit
func (b *BitWriter) WriteBool(v bool) {
	if v {
		b.WriteBits(1, 1)
		return
	}
	b.WriteBits(0, 1)
}

// Align pads with zeros up to the next byte boundary
func (b *BitWriter) Align() {
	if b.bits > 0 {
		b.WriteBits(0, 8-b.bits)
	}
}

// Bytes returns the written bytes, zero padding the last partial byte
func (b *BitWriter) Bytes() []byte {
	out := append([]byte(nil), b.out...)
	if b.bits > 0 {
		out = append(out, byte(b.buf))
	}
	return out
}

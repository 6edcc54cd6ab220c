package header

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitReader_ReadBits(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		reads    []int
		expected []uint32
	}{
		{
			name:     "low nibble first",
			data:     []byte{0xAB},
			reads:    []int{4, 4},
			expected: []uint32{0xB, 0xA},
		},
		{
			name:     "single bits",
			data:     []byte{0x05},
			reads:    []int{1, 1, 1, 1},
			expected: []uint32{1, 0, 1, 0},
		},
		{
			name:     "little endian across bytes",
			data:     []byte{0xCD, 0xAB},
			reads:    []int{16},
			expected: []uint32{0xABCD},
		},
		{
			name:     "straddles a byte",
			data:     []byte{0xF0, 0x0F},
			reads:    []int{4, 8, 4},
			expected: []uint32{0x0, 0xFF, 0x0},
		},
		{
			name:     "full word",
			data:     []byte{0x78, 0x56, 0x34, 0x12},
			reads:    []int{32},
			expected: []uint32{0x12345678},
		},
		{
			name:     "zero width",
			data:     nil,
			reads:    []int{0},
			expected: []uint32{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br := NewBitReader(tt.data)
			for i, n := range tt.reads {
				v, err := br.ReadBits(n)
				require.NoError(t, err)
				assert.Equal(t, tt.expected[i], v, "read %d", i)
			}
		})
	}
}

func TestBitReader_EOF(t *testing.T) {
	br := NewBitReader([]byte{0xFF})
	_, err := br.ReadBits(6)
	require.NoError(t, err)
	_, err = br.ReadBits(3)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	br = NewBitReader([]byte{0xFF, 0xFF})
	assert.ErrorIs(t, br.Skip(17), io.ErrUnexpectedEOF)
	require.NoError(t, br.Skip(16))
	assert.Equal(t, int64(0), br.Remaining())
}

func TestBitReader_Accounting(t *testing.T) {
	br := NewBitReader([]byte{0x01, 0x02, 0x03})
	assert.Equal(t, int64(24), br.Remaining())

	_, err := br.ReadBits(3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), br.BitsRead())
	assert.Equal(t, int64(21), br.Remaining())

	br.Align()
	assert.Equal(t, int64(8), br.BitsRead())
	v, err := br.ReadBits(8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x02), v)

	require.NoError(t, br.Skip(4))
	assert.Equal(t, int64(20), br.BitsRead())
	assert.Equal(t, int64(4), br.Remaining())
}

func TestBitWriter_WriteBits(t *testing.T) {
	tests := []struct {
		name   string
		writes []struct {
			val  uint32
			bits int
		}
		expected []byte
	}{
		{
			name: "two nibbles",
			writes: []struct {
				val  uint32
				bits int
			}{{0xB, 4}, {0xA, 4}},
			expected: []byte{0xAB},
		},
		{
			name: "partial byte is zero padded",
			writes: []struct {
				val  uint32
				bits int
			}{{0x5, 3}},
			expected: []byte{0x05},
		},
		{
			name: "multi-byte",
			writes: []struct {
				val  uint32
				bits int
			}{{0xABCD, 16}},
			expected: []byte{0xCD, 0xAB},
		},
		{
			name: "extra high bits are masked",
			writes: []struct {
				val  uint32
				bits int
			}{{0xFF, 2}, {0, 6}},
			expected: []byte{0x03},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bw := NewBitWriter()
			for _, w := range tt.writes {
				bw.WriteBits(w.val, w.bits)
			}
			assert.Equal(t, tt.expected, bw.Bytes())
		})
	}
}

func TestBitWriter_Align(t *testing.T) {
	bw := NewBitWriter()
	bw.WriteBool(true)
	bw.Align()
	bw.WriteBits(0x7F, 8)
	assert.Equal(t, []byte{0x01, 0x7F}, bw.Bytes())

	// Bytes does not consume the pending partial byte
	bw.WriteBool(true)
	assert.Equal(t, []byte{0x01, 0x7F, 0x01}, bw.Bytes())
	bw.WriteBool(true)
	assert.Equal(t, []byte{0x01, 0x7F, 0x03}, bw.Bytes())
}

// Package header parses the JPEG XL codestream headers (ISO/IEC 18181-1
// SizeHeader and ImageMetadata) that carry the basic image information.
// Frame data is not decoded.
package header

import (
	"errors"
	"fmt"
	"math"
)

// Common errors
var (
	ErrSignature     = errors.New("jxl: invalid codestream signature")
	ErrInvalidHeader = errors.New("jxl: invalid header field")
)

// Distribution is one of the four encodings a U32 field selects between
type Distribution struct {
	Offset uint32
	Bits   int
}

// Val is a distribution that always decodes to v
func Val(v uint32) Distribution { return Distribution{Offset: v} }

// Bits is a distribution of n raw bits
func Bits(n int) Distribution { return Distribution{Bits: n} }

// BitsOffset is a distribution of n raw bits added to offset
func BitsOffset(n int, offset uint32) Distribution {
	return Distribution{Offset: offset, Bits: n}
}

func (d Distribution) max() uint64 {
	return uint64(d.Offset) + (uint64(1)<<d.Bits - 1)
}

// U32 reads a 2-bit selector followed by the selected distribution
func (b *BitReader) U32(d0, d1, d2, d3 Distribution) (uint32, error) {
	sel, err := b.ReadBits(2)
	if err != nil {
		return 0, err
	}
	d := [4]Distribution{d0, d1, d2, d3}[sel]
	v, err := b.ReadBits(d.Bits)
	if err != nil {
		return 0, err
	}
	return d.Offset + v, nil
}

// U64 reads the variable length 64-bit integer encoding
func (b *BitReader) U64() (uint64, error) {
	sel, err := b.ReadBits(2)
	if err != nil {
		return 0, err
	}
	switch sel {
	case 0:
		return 0, nil
	case 1:
		v, err := b.ReadBits(4)
		return 1 + uint64(v), err
	case 2:
		v, err := b.ReadBits(8)
		return 17 + uint64(v), err
	}
	v, err := b.ReadBits(12)
	if err != nil {
		return 0, err
	}
	val := uint64(v)
	shift := 12
	for {
		more, err := b.ReadBool()
		if err != nil {
			return 0, err
		}
		if !more {
			return val, nil
		}
		if shift == 60 {
			top, err := b.ReadBits(4)
			if err != nil {
				return 0, err
			}
			return val | uint64(top)<<60, nil
		}
		part, err := b.ReadBits(8)
		if err != nil {
			return 0, err
		}
		val |= uint64(part) << shift
		shift += 8
	}
}

// Enum reads an enumerated value; the caller validates the range
func (b *BitReader) Enum() (uint32, error) {
	return b.U32(Val(0), Val(1), BitsOffset(4, 2), BitsOffset(6, 18))
}

// F16 reads an IEEE 754 half precision value. Infinities and NaNs are rejected.
func (b *BitReader) F16() (float32, error) {
	bits, err := b.ReadBits(16)
	if err != nil {
		return 0, err
	}
	sign := bits >> 15
	exp := (bits >> 10) & 0x1F
	mantissa := bits & 0x3FF
	if exp == 0x1F {
		return 0, fmt.Errorf("%w: non-finite f16 0x%04X", ErrInvalidHeader, bits)
	}
	var v float64
	if exp == 0 {
		v = float64(mantissa) / 1024 * math.Pow(2, -14)
	} else {
		v = (1 + float64(mantissa)/1024) * math.Pow(2, float64(exp)-15)
	}
	if sign == 1 {
		v = -v
	}
	return float32(v), nil
}

// WriteU32 writes v with the first distribution able to represent it
func (b *BitWriter) WriteU32(v uint32, d0, d1, d2, d3 Distribution) error {
	for sel, d := range [4]Distribution{d0, d1, d2, d3} {
		if v < d.Offset || uint64(v) > d.max() {
			continue
		}
		b.WriteBits(uint32(sel), 2)
		b.WriteBits(v-d.Offset, d.Bits)
		return nil
	}
	return fmt.Errorf("%w: %d not representable", ErrInvalidHeader, v)
}

// WriteU64 writes v with the variable length 64-bit encoding
func (b *BitWriter) WriteU64(v uint64) {
	switch {
	case v == 0:
		b.WriteBits(0, 2)
		return
	case v <= 16:
		b.WriteBits(1, 2)
		b.WriteBits(uint32(v-1), 4)
		return
	case v <= 272:
		b.WriteBits(2, 2)
		b.WriteBits(uint32(v-17), 8)
		return
	}
	b.WriteBits(3, 2)
	b.WriteBits(uint32(v&0xFFF), 12)
	v >>= 12
	shift := 12
	for v > 0 {
		b.WriteBool(true)
		if shift == 60 {
			b.WriteBits(uint32(v&0xF), 4)
			return
		}
		b.WriteBits(uint32(v&0xFF), 8)
		v >>= 8
		shift += 8
	}
	b.WriteBool(false)
}

// WriteEnum writes an enumerated value
func (b *BitWriter) WriteEnum(v uint32) error {
	return b.WriteU32(v, Val(0), Val(1), BitsOffset(4, 2), BitsOffset(6, 18))
}

// WriteF16 writes v as a half precision value, truncating extra mantissa bits
func (b *BitWriter) WriteF16(v float32) error {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return fmt.Errorf("%w: non-finite f16 %v", ErrInvalidHeader, v)
	}
	bits := math.Float32bits(v)
	sign := uint32(bits>>16) & 0x8000
	exp := int((bits>>23)&0xFF) - 127
	mantissa := bits & 0x7FFFFF
	switch {
	case v == 0:
		b.WriteBits(sign, 16)
	case exp > 15:
		return fmt.Errorf("%w: %v overflows f16", ErrInvalidHeader, v)
	case exp < -14:
		// subnormal
		m := (mantissa | 0x800000) >> uint(-exp-14+13)
		b.WriteBits(sign|m, 16)
	default:
		b.WriteBits(sign|uint32(exp+15)<<10|mantissa>>13, 16)
	}
	return nil
}

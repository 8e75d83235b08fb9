package binrec

import "math"

// Float16ToFloat32 decodes an IEEE 754 binary16 value. Subnormals, signed
// zeros, infinities and NaNs are preserved.
func Float16ToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: mant * 2^-24.
		f := float32(mant) * (1.0 / (1 << 24))
		if sign != 0 {
			return -f
		}
		return f
	case 0x1f:
		if mant == 0 {
			return math.Float32frombits(sign | 0x7f800000)
		}
		return math.Float32frombits(sign | 0x7fc00000 | mant<<13)
	default:
		return math.Float32frombits(sign | (exp+112)<<23 | mant<<13)
	}
}

// Float32ToFloat16 encodes f as IEEE 754 binary16 with round-to-nearest-even.
// Values beyond the half range become infinities.
func Float32ToFloat16(f float32) uint16 {
	b := math.Float32bits(f)
	sign := uint16(b>>16) & 0x8000
	exp := int32(b>>23) & 0xff
	mant := b & 0x7fffff

	if exp == 0xff {
		if mant != 0 {
			return sign | 0x7e00 | uint16(mant>>13)
		}
		return sign | 0x7c00
	}

	e := exp - 127 + 15
	if e >= 0x1f {
		return sign | 0x7c00
	}
	if e <= 0 {
		if e < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint32(14 - e)
		m := mant >> shift
		rem := mant & (1<<shift - 1)
		half := uint32(1) << (shift - 1)
		if rem > half || (rem == half && m&1 == 1) {
			m++
		}
		return sign | uint16(m)
	}

	h := sign | uint16(e)<<10 | uint16(mant>>13)
	rem := mant & 0x1fff
	if rem > 0x1000 || (rem == 0x1000 && h&1 == 1) {
		// Carry may roll the mantissa into the exponent, which is the
		// correctly rounded result (up to and including infinity).
		h++
	}
	return h
}

// UnsignedFromHalf applies the unsigned reinterpretation used for texel
// addresses and split integers: a negative value encodes 2048 - decoded,
// which extends the exactly representable integer range of a half float
// from [0, 2048] to [0, 4096). Negative zero is not negative and reads as 0.
func UnsignedFromHalf(h uint16) float32 {
	v := Float16ToFloat32(h)
	if v < 0 {
		return 2048 - v
	}
	return v
}

// HalfFromUnsigned is the inverse of UnsignedFromHalf for values in
// [0, 4096).
func HalfFromUnsigned(v float32) uint16 {
	if v <= 2048 {
		return Float32ToFloat16(v)
	}
	return Float32ToFloat16(2048-v) | 0x8000
}

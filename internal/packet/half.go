package packet

import "math"

// quietNaN is the float32 bit pattern returned for half NaNs.
const quietNaN = 0x7FC00000

// HalfToFloat32 widens a half precision value the way the rod firmware's
// companion app always has:
//
//   - exponent 0 keeps a zero exponent field and shifts the fraction into the
//     mantissa, so subnormals are not renormalised.
//   - exponent 31 with a zero fraction becomes +0, not infinity.
//   - exponent 31 with a non-zero fraction becomes NaN.
func HalfToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exponent := uint32(h&0x7C00) >> 10
	fraction := uint32(h&0x03FF) << 13

	switch exponent {
	case 0:
	case 31:
		if fraction == 0 {
			return 0
		}
		return math.Float32frombits(quietNaN)
	default:
		exponent += 112
	}

	return math.Float32frombits(sign | exponent<<23 | fraction)
}

// Float32ToHalf narrows f to half precision, truncating the mantissa.
// Magnitudes above the largest finite half saturate to it and magnitudes
// below the smallest normal half become signed zero. NaN maps to 0x7E00.
func Float32ToHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000

	if f != f {
		return 0x7E00
	}

	exponent := int32(bits>>23&0xFF) - 127 + 15
	mantissa := uint16(bits>>13) & 0x03FF

	switch {
	case exponent >= 31:
		return sign | 0x7BFF
	case exponent <= 0:
		return sign
	}
	return sign | uint16(exponent)<<10 | mantissa
}

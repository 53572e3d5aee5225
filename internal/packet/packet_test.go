package packet

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeShortPackets(t *testing.T) {
	for n := 0; n < Size; n++ {
		_, err := Decode(make([]byte, n))
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrTooShort), "len %d", n)

		var short *ShortPacketError
		require.True(t, errors.As(err, &short))
		require.Equal(t, n, short.Len)
	}

	_, err := Decode(nil)
	require.ErrorIs(t, err, ErrTooShort)
}

func TestHalfToFloat32Fixtures(t *testing.T) {
	zero := HalfToFloat32(0x0000)
	require.Equal(t, float32(0), zero)
	require.False(t, math.Signbit(float64(zero)))

	negZero := HalfToFloat32(0x8000)
	require.Equal(t, float32(0), negZero)
	require.True(t, math.Signbit(float64(negZero)))

	require.Equal(t, float32(1.0), HalfToFloat32(0x3C00))
	require.Equal(t, float32(-2.0), HalfToFloat32(0xC000))
	require.Equal(t, float32(0.5), HalfToFloat32(0x3800))
	require.Equal(t, float32(65504), HalfToFloat32(0x7BFF))

	// Infinity encodings collapse to positive zero, whatever the sign.
	inf := HalfToFloat32(0x7C00)
	require.Equal(t, float32(0), inf)
	require.False(t, math.Signbit(float64(inf)))
	require.False(t, math.Signbit(float64(HalfToFloat32(0xFC00))))

	require.True(t, math.IsNaN(float64(HalfToFloat32(0x7E00))))
	require.True(t, math.IsNaN(float64(HalfToFloat32(0x7C01))))
}

func TestHalfToFloat32SubnormalsAreNotRenormalised(t *testing.T) {
	// The fraction lands in the mantissa with a zero exponent field.
	got := HalfToFloat32(0x0001)
	require.Equal(t, uint32(1)<<13, math.Float32bits(got))

	got = HalfToFloat32(0x83FF)
	require.Equal(t, uint32(0x80000000)|uint32(0x3FF)<<13, math.Float32bits(got))
}

func TestHitFlagIsStrictEquality(t *testing.T) {
	cases := map[byte]bool{
		0:   false,
		1:   true,
		2:   false,
		255: false,
	}
	for b, want := range cases {
		data := make([]byte, Size)
		data[12] = b
		r, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, want, r.HitRaw, "hit byte %d", b)
	}
}

func TestDecodeFieldOrder(t *testing.T) {
	data := []byte{
		0x00, 0x3C, // gyroX 1.0
		0x00, 0x40, // gyroY 2.0
		0x00, 0xC2, // gyroZ -3.0
		0x00, 0x38, // accX 0.5
		0x00, 0x00, // accY 0
		0x00, 0x44, // accZ 4.0
		0x01,
		0xAA, 0xBB, // trailing bytes are ignored
	}

	r, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, SensorReading{
		GyroX: 1, GyroY: 2, GyroZ: -3,
		AccX: 0.5, AccY: 0, AccZ: 4,
		HitRaw: true,
	}, r)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := SensorReading{
		GyroX: 12.5, GyroY: -0.25, GyroZ: 100,
		AccX: 0.0625, AccY: -9.75, AccZ: 1,
		HitRaw: true,
	}
	data := Encode(in)
	require.Len(t, data, Size)

	out, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestFloat32ToHalf(t *testing.T) {
	require.Equal(t, uint16(0x3C00), Float32ToHalf(1))
	require.Equal(t, uint16(0xC000), Float32ToHalf(-2))
	require.Equal(t, uint16(0x0000), Float32ToHalf(0))
	require.Equal(t, uint16(0x7BFF), Float32ToHalf(1e9))
	require.Equal(t, uint16(0xFBFF), Float32ToHalf(float32(math.Inf(-1))))
	require.Equal(t, uint16(0x8000), Float32ToHalf(-1e-9))
	require.Equal(t, uint16(0x7E00), Float32ToHalf(float32(math.NaN())))
}

func TestAccelMagnitude(t *testing.T) {
	r := SensorReading{AccX: 3, AccY: 4}
	require.InDelta(t, 5.0, r.AccelMagnitude(), 1e-9)
}

// Package packet decodes the Fishing Buddy sensor notifications.
package packet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Size is the minimum length of a sensor packet in bytes.
// Bytes 0-11 hold six little-endian half floats (gyro x/y/z, accel x/y/z),
// byte 12 is the hit flag. Anything after byte 12 is ignored.
const Size = 13

// hitFlag is the only byte value that marks a hit.
const hitFlag = 1

var (
	// ErrTooShort is matched by errors.Is for packets shorter than Size.
	ErrTooShort = errors.New("packet too short")
	// ErrMalformed is returned when the packet body cannot be read.
	ErrMalformed = errors.New("malformed packet")
)

// ShortPacketError reports the length of a packet that was too short to decode.
type ShortPacketError struct {
	Len int
}

func (e *ShortPacketError) Error() string {
	return fmt.Sprintf("%v: expected at least %d bytes, got %d", ErrTooShort, Size, e.Len)
}

// Is lets errors.Is(err, ErrTooShort) match.
func (e *ShortPacketError) Is(target error) bool {
	return target == ErrTooShort
}

// SensorReading is one decoded packet.
type SensorReading struct {
	GyroX, GyroY, GyroZ float32
	AccX, AccY, AccZ    float32
	HitRaw              bool
}

// wireFrame mirrors the first Size bytes of a notification.
type wireFrame struct {
	Gyro [3]uint16
	Acc  [3]uint16
	Hit  uint8
}

// Decode parses a raw notification into a SensorReading.
func Decode(data []byte) (SensorReading, error) {
	if len(data) < Size {
		return SensorReading{}, &ShortPacketError{Len: len(data)}
	}

	var f wireFrame
	if err := binary.Read(bytes.NewReader(data[:Size]), binary.LittleEndian, &f); err != nil {
		return SensorReading{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return SensorReading{
		GyroX:  HalfToFloat32(f.Gyro[0]),
		GyroY:  HalfToFloat32(f.Gyro[1]),
		GyroZ:  HalfToFloat32(f.Gyro[2]),
		AccX:   HalfToFloat32(f.Acc[0]),
		AccY:   HalfToFloat32(f.Acc[1]),
		AccZ:   HalfToFloat32(f.Acc[2]),
		HitRaw: f.Hit == hitFlag,
	}, nil
}

// Encode builds a Size-byte packet for r. Values outside the half range
// saturate; see Float32ToHalf.
func Encode(r SensorReading) []byte {
	f := wireFrame{
		Gyro: [3]uint16{Float32ToHalf(r.GyroX), Float32ToHalf(r.GyroY), Float32ToHalf(r.GyroZ)},
		Acc:  [3]uint16{Float32ToHalf(r.AccX), Float32ToHalf(r.AccY), Float32ToHalf(r.AccZ)},
	}
	if r.HitRaw {
		f.Hit = hitFlag
	}

	buf := make([]byte, 0, Size)
	for _, v := range f.Gyro {
		buf = binary.LittleEndian.AppendUint16(buf, v)
	}
	for _, v := range f.Acc {
		buf = binary.LittleEndian.AppendUint16(buf, v)
	}
	return append(buf, f.Hit)
}

// AccelMagnitude returns the length of the acceleration vector.
func (r SensorReading) AccelMagnitude() float64 {
	x, y, z := float64(r.AccX), float64(r.AccY), float64(r.AccZ)
	return math.Sqrt(x*x + y*y + z*z)
}

// String returns a human-readable representation of the reading.
func (r SensorReading) String() string {
	return fmt.Sprintf("gyro(%.2f, %.2f, %.2f) acc(%.2f, %.2f, %.2f) hit=%t",
		r.GyroX, r.GyroY, r.GyroZ, r.AccX, r.AccY, r.AccZ, r.HitRaw)
}

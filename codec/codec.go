// Package codec packs fixed-width little-endian fields and converts between
// binary data and the uppercase hex text used on the PostGIS raster wire.
package codec

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/eak1mov/go-pgraster/pixel"
)

var (
	ErrEncoding = errors.New("pgraster: encoding error")
	ErrDecoding = errors.New("pgraster: decoding error")
)

// Field is a single value with its binary layout.
type Field struct {
	Code  pixel.PackCode
	Value float64
}

// Size returns the total width in bytes of the given codes.
func Size(codes ...pixel.PackCode) int {
	size := 0
	for _, code := range codes {
		size += code.Width()
	}
	return size
}

// PackLE serializes fields in order with no padding.
func PackLE(fields ...Field) ([]byte, error) {
	buf := make([]byte, 0, 16)
	for _, field := range fields {
		var err error
		buf, err = AppendValue(buf, field.Code, field.Value)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// UnpackLE is the inverse of PackLE. The data length must match the codes exactly.
func UnpackLE(codes []pixel.PackCode, data []byte) ([]float64, error) {
	for _, code := range codes {
		if !code.Valid() {
			return nil, fmt.Errorf("%w: unknown pack code %q", ErrDecoding, code)
		}
	}
	if size := Size(codes...); size != len(data) {
		return nil, fmt.Errorf("%w: got %d bytes, layout needs %d", ErrDecoding, len(data), size)
	}
	values := make([]float64, len(codes))
	for i, code := range codes {
		values[i], _ = Value(code, data)
		data = data[code.Width():]
	}
	return values, nil
}

// AppendValue appends v encoded as code to buf.
func AppendValue(buf []byte, code pixel.PackCode, v float64) ([]byte, error) {
	switch code {
	case pixel.PackBool:
		switch v {
		case 0:
			return append(buf, 0), nil
		case 1:
			return append(buf, 1), nil
		}
		return nil, fmt.Errorf("%w: %v overflows %v", ErrEncoding, v, code)
	case pixel.PackFloat32:
		if !math.IsInf(v, 0) && !math.IsNaN(v) && math.Abs(v) > math.MaxFloat32 {
			return nil, fmt.Errorf("%w: %v overflows %v", ErrEncoding, v, code)
		}
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v))), nil
	case pixel.PackFloat64:
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v)), nil
	}

	if !code.Valid() {
		return nil, fmt.Errorf("%w: unknown pack code %q", ErrEncoding, code)
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %v is not an integer for %v", ErrEncoding, v, code)
	}
	bits := uint(code.Width() * 8)
	var lo, hi float64
	if code.Signed() {
		lo, hi = -math.Ldexp(1, int(bits-1)), math.Ldexp(1, int(bits-1))-1
	} else {
		lo, hi = 0, math.Ldexp(1, int(bits))-1
	}
	if v < lo || v > hi {
		return nil, fmt.Errorf("%w: %v overflows %v", ErrEncoding, v, code)
	}

	u := uint64(int64(v))
	switch code.Width() {
	case 1:
		return append(buf, byte(u)), nil
	case 2:
		return binary.LittleEndian.AppendUint16(buf, uint16(u)), nil
	default:
		return binary.LittleEndian.AppendUint32(buf, uint32(u)), nil
	}
}

// Value decodes the leading field of data as code.
func Value(code pixel.PackCode, data []byte) (float64, error) {
	width := code.Width()
	if width == 0 {
		return 0, fmt.Errorf("%w: unknown pack code %q", ErrDecoding, code)
	}
	if len(data) < width {
		return 0, fmt.Errorf("%w: got %d bytes, %v needs %d", ErrDecoding, len(data), code, width)
	}
	switch code {
	case pixel.PackBool:
		if data[0] != 0 {
			return 1, nil
		}
		return 0, nil
	case pixel.PackInt8:
		return float64(int8(data[0])), nil
	case pixel.PackUint8:
		return float64(data[0]), nil
	case pixel.PackInt16:
		return float64(int16(binary.LittleEndian.Uint16(data))), nil
	case pixel.PackUint16:
		return float64(binary.LittleEndian.Uint16(data)), nil
	case pixel.PackInt32:
		return float64(int32(binary.LittleEndian.Uint32(data))), nil
	case pixel.PackUint32:
		return float64(binary.LittleEndian.Uint32(data)), nil
	case pixel.PackFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data))), nil
	default:
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
	}
}

// BytesToHex returns the uppercase hex encoding of data.
func BytesToHex(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}

// HexToBytes decodes hex text of either case.
func HexToBytes(s string) ([]byte, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecoding, err)
	}
	return data, nil
}

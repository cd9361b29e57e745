package wkb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/eak1mov/go-pgraster/codec"
)

var (
	ErrUnsupportedVersion    = errors.New("pgraster: unsupported wire version")
	ErrInconsistentBandTypes = errors.New("pgraster: band pixel types are not all equal")
	ErrMalformedData         = errors.New("pgraster: malformed wire data")
)

const (
	EndianLittle uint8  = 1
	Version      uint16 = 0

	// HeaderLength is the size in bytes of the serialized header (122 hex characters).
	HeaderLength = 61
)

// Header is the fixed-size raster header in wire field order.
type Header struct {
	Endianness uint8
	Version    uint16
	NumBands   uint16
	ScaleX     float64
	ScaleY     float64
	OriginX    float64
	OriginY    float64
	SkewX      float64
	SkewY      float64
	SRID       int32
	Width      uint16
	Height     uint16
}

func SerializeHeader(header *Header) []byte {
	var buffer bytes.Buffer
	buffer.Grow(HeaderLength)
	binary.Write(&buffer, binary.LittleEndian, header)
	return buffer.Bytes()
}

func DeserializeHeader(buffer []byte) (*Header, error) {
	if len(buffer) < HeaderLength {
		return nil, fmt.Errorf("%w: %w: header needs %d bytes, got %d",
			ErrMalformedData, codec.ErrDecoding, HeaderLength, len(buffer))
	}
	header := Header{}
	if err := binary.Read(bytes.NewReader(buffer[:HeaderLength]), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedData, err)
	}
	if header.Endianness != EndianLittle || header.Version != Version {
		return nil, fmt.Errorf("%w: endianness %d, version %d",
			ErrUnsupportedVersion, header.Endianness, header.Version)
	}
	return &header, nil
}

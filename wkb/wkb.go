// Package wkb reads and writes the PostGIS WKB raster format: a little-endian
// header followed by bands, transported as uppercase hex text.
package wkb

import (
	"fmt"
	"math"

	"github.com/eak1mov/go-pgraster/codec"
	"github.com/eak1mov/go-pgraster/pixel"
	"github.com/eak1mov/go-pgraster/raster"
)

// nodataFlag is set in a band's type byte when the band has a nodata value.
const nodataFlag = 64

// Band is one band as stored on the wire. Data holds Width*Height samples of
// Type in row-major order, each Type.Width() bytes wide.
type Band struct {
	Type      pixel.Type
	HasNodata bool
	Nodata    float64
	Data      []byte
}

// Document is a decoded raster: header quantities plus bands.
type Document struct {
	Width        int
	Height       int
	SRID         int
	GeoTransform raster.GeoTransform
	Bands        []Band
}

// PixelType returns the engine type shared by all bands, or pixel.Unknown for an empty raster.
func (d *Document) PixelType() (pixel.EngineType, error) {
	if len(d.Bands) == 0 {
		return pixel.Unknown, nil
	}
	first, err := d.Bands[0].Type.EngineType()
	if err != nil {
		return pixel.Unknown, err
	}
	for i, band := range d.Bands[1:] {
		engine, err := band.Type.EngineType()
		if err != nil {
			return pixel.Unknown, err
		}
		if engine != first {
			return pixel.Unknown, fmt.Errorf("%w: band 0 is %v, band %d is %v",
				ErrInconsistentBandTypes, d.Bands[0].Type, i+1, band.Type)
		}
	}
	return first, nil
}

type config struct {
	nodataPadding bool
}

type Option func(*config)

// WithNodataPadding selects the layout where every band carries a nodata
// slot whether or not the nodata flag is set. PostGIS itself writes this layout.
func WithNodataPadding() Option {
	return func(c *config) { c.nodataPadding = true }
}

func newConfig(opts []Option) config {
	c := config{}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Decode parses a hex-encoded WKB raster.
func Decode(text string, opts ...Option) (*Document, error) {
	data, err := codec.HexToBytes(text)
	if err != nil {
		return nil, err
	}
	return DecodeBinary(data, opts...)
}

// DecodeBinary parses a binary WKB raster.
func DecodeBinary(data []byte, opts ...Option) (*Document, error) {
	c := newConfig(opts)

	header, err := DeserializeHeader(data)
	if err != nil {
		return nil, err
	}
	data = data[HeaderLength:]

	doc := &Document{
		Width:        int(header.Width),
		Height:       int(header.Height),
		SRID:         int(header.SRID),
		GeoTransform: raster.GeoTransform{header.OriginX, header.ScaleX, header.SkewX, header.OriginY, header.SkewY, header.ScaleY},
		Bands:        make([]Band, 0, header.NumBands),
	}
	pixels := doc.Width * doc.Height

	for len(data) > 0 {
		if len(doc.Bands) == int(header.NumBands) {
			return nil, fmt.Errorf("%w: %d trailing bytes after %d bands", ErrMalformedData, len(data), header.NumBands)
		}

		band := Band{Type: pixel.Type(data[0])}
		data = data[1:]
		if band.Type >= nodataFlag {
			band.HasNodata = true
			band.Type -= nodataFlag
		}

		code, err := band.Type.PackCode()
		if err != nil {
			return nil, err
		}
		width := code.Width()

		if band.HasNodata || c.nodataPadding {
			if len(data) < width {
				return nil, fmt.Errorf("%w: band %d nodata truncated", ErrMalformedData, len(doc.Bands))
			}
			if band.HasNodata {
				band.Nodata, _ = codec.Value(code, data)
			}
			data = data[width:]
		}

		size := pixels * width
		if len(data) < size {
			return nil, fmt.Errorf("%w: band %d needs %d bytes, got %d", ErrMalformedData, len(doc.Bands), size, len(data))
		}
		band.Data = append([]byte(nil), data[:size]...)
		data = data[size:]

		doc.Bands = append(doc.Bands, band)
	}

	if len(doc.Bands) != int(header.NumBands) {
		return nil, fmt.Errorf("%w: header declares %d bands, found %d", ErrMalformedData, header.NumBands, len(doc.Bands))
	}
	if _, err := doc.PixelType(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Encode serializes doc as uppercase hex text.
func Encode(doc *Document, opts ...Option) (string, error) {
	data, err := EncodeBinary(doc, opts...)
	if err != nil {
		return "", err
	}
	return codec.BytesToHex(data), nil
}

// EncodeBinary serializes doc as binary WKB.
//
// A negative nodata value on a band with an unsigned engine type is written
// as its absolute value, so it does not survive a round trip unchanged.
func EncodeBinary(doc *Document, opts ...Option) ([]byte, error) {
	c := newConfig(opts)

	if doc.Width < 0 || doc.Width > math.MaxUint16 || doc.Height < 0 || doc.Height > math.MaxUint16 {
		return nil, fmt.Errorf("%w: size %dx%d does not fit the header", codec.ErrEncoding, doc.Width, doc.Height)
	}
	if len(doc.Bands) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d bands do not fit the header", codec.ErrEncoding, len(doc.Bands))
	}
	if doc.SRID < math.MinInt32 || doc.SRID > math.MaxInt32 {
		return nil, fmt.Errorf("%w: srid %d does not fit the header", codec.ErrEncoding, doc.SRID)
	}
	if _, err := doc.PixelType(); err != nil {
		return nil, err
	}

	gt := doc.GeoTransform
	header := Header{
		Endianness: EndianLittle,
		Version:    Version,
		NumBands:   uint16(len(doc.Bands)),
		ScaleX:     gt[1],
		ScaleY:     gt[5],
		OriginX:    gt[0],
		OriginY:    gt[3],
		SkewX:      gt[2],
		SkewY:      gt[4],
		SRID:       int32(doc.SRID),
		Width:      uint16(doc.Width),
		Height:     uint16(doc.Height),
	}
	result := SerializeHeader(&header)

	pixels := doc.Width * doc.Height
	for i, band := range doc.Bands {
		code, err := band.Type.PackCode()
		if err != nil {
			return nil, err
		}
		if size := pixels * code.Width(); len(band.Data) != size {
			return nil, fmt.Errorf("%w: band %d has %d bytes, want %d", codec.ErrEncoding, i, len(band.Data), size)
		}

		typeByte := float64(band.Type)
		if band.HasNodata {
			typeByte += nodataFlag
		}
		result, _ = codec.AppendValue(result, pixel.PackUint8, typeByte)

		if band.HasNodata || c.nodataPadding {
			nodata := 0.0
			if band.HasNodata {
				nodata = band.Nodata
				engine, _ := band.Type.EngineType()
				if nodata < 0 && engine.Unsigned() {
					nodata = math.Abs(nodata)
				}
			}
			if bits := band.Type.Bits(); bits < 8 && nodata > float64(int(1)<<bits-1) {
				return nil, fmt.Errorf("%w: band %d nodata %v overflows %v", codec.ErrEncoding, i, nodata, band.Type)
			}
			result, err = codec.AppendValue(result, code, nodata)
			if err != nil {
				return nil, fmt.Errorf("band %d nodata: %w", i, err)
			}
		}

		result = append(result, band.Data...)
	}

	return result, nil
}

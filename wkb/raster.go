package wkb

import (
	"fmt"

	"github.com/eak1mov/go-pgraster/codec"
	"github.com/eak1mov/go-pgraster/pixel"
	"github.com/eak1mov/go-pgraster/raster"
)

// FromRaster reads every band of ds into a new document.
func FromRaster(ds raster.Dataset) (*Document, error) {
	doc := &Document{
		Width:        ds.Width(),
		Height:       ds.Height(),
		SRID:         ds.SRID(),
		GeoTransform: ds.GeoTransform(),
		Bands:        make([]Band, ds.BandCount()),
	}
	if len(doc.Bands) == 0 {
		return doc, nil
	}

	wire, err := ds.PixelType().WireType()
	if err != nil {
		return nil, err
	}
	for i := range doc.Bands {
		data, err := ds.ReadBlock(i, 0, 0, doc.Width, doc.Height)
		if err != nil {
			return nil, err
		}
		nodata, hasNodata, err := ds.Nodata(i)
		if err != nil {
			return nil, err
		}
		doc.Bands[i] = Band{Type: wire, HasNodata: hasNodata, Nodata: nodata, Data: data}
	}
	return doc, nil
}

// ToRaster creates a dataset with driver and writes every band of d into it.
// Samples of wire types narrower than their engine type are widened.
func (d *Document) ToRaster(driver raster.Driver, name string) (raster.Dataset, error) {
	dtype, err := d.PixelType()
	if err != nil {
		return nil, err
	}
	ds, err := driver.Create(raster.Params{
		Name:   name,
		Width:  d.Width,
		Height: d.Height,
		Bands:  len(d.Bands),
		Type:   dtype,
	})
	if err != nil {
		return nil, err
	}
	if err := ds.SetGeoTransform(d.GeoTransform); err != nil {
		return nil, err
	}
	if err := ds.SetSRID(d.SRID); err != nil {
		return nil, err
	}

	var engineCode pixel.PackCode
	if len(d.Bands) > 0 {
		if engineCode, err = dtype.PackCode(); err != nil {
			return nil, err
		}
	}
	for i, band := range d.Bands {
		data, err := widen(band, engineCode)
		if err != nil {
			return nil, fmt.Errorf("band %d: %w", i, err)
		}
		if err := ds.WriteBlock(i, 0, 0, d.Width, d.Height, data); err != nil {
			return nil, err
		}
		if band.HasNodata {
			if err := ds.SetNodata(i, band.Nodata); err != nil {
				return nil, err
			}
		}
	}
	return ds, nil
}

// widen converts band samples to the engine's layout when the two differ.
func widen(band Band, dst pixel.PackCode) ([]byte, error) {
	src, err := band.Type.PackCode()
	if err != nil {
		return nil, err
	}
	if src == dst {
		return band.Data, nil
	}

	width := src.Width()
	result := make([]byte, 0, len(band.Data)/width*dst.Width())
	for offset := 0; offset+width <= len(band.Data); offset += width {
		v, err := codec.Value(src, band.Data[offset:])
		if err != nil {
			return nil, err
		}
		result, err = codec.AppendValue(result, dst, v)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// EncodeRaster serializes ds as hex WKB.
func EncodeRaster(ds raster.Dataset, opts ...Option) (string, error) {
	doc, err := FromRaster(ds)
	if err != nil {
		return "", err
	}
	return Encode(doc, opts...)
}

// DecodeRaster parses hex WKB and materializes it with driver.
func DecodeRaster(driver raster.Driver, text string, opts ...Option) (raster.Dataset, error) {
	doc, err := Decode(text, opts...)
	if err != nil {
		return nil, err
	}
	return doc.ToRaster(driver, "")
}

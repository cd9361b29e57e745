// Package rastertest builds small rasters for tests.
package rastertest

import (
	"testing"

	"github.com/eak1mov/go-pgraster/codec"
	"github.com/eak1mov/go-pgraster/raster"
	"github.com/stretchr/testify/require"
)

// Sample8BUI is a 2x2 single-band 8BUI raster in EPSG:4326 with origin
// (10, 20), scale (1, -1), nodata 0 and pixels 1, 2, 3, 4.
const Sample8BUI = "0100000100000000000000F03F000000000000F0BF0000000000002440" +
	"000000000000344000000000000000000000000000000000E610000002000200" +
	"440001020304"

// Sample8BUIPadded is Sample8BUI without nodata, in the layout that keeps the nodata slot.
const Sample8BUIPadded = "0100000100000000000000F03F000000000000F0BF0000000000002440" +
	"000000000000344000000000000000000000000000000000E610000002000200" +
	"040001020304"

// Spec describes a raster whose bands are filled with a constant value.
type Spec struct {
	Params       raster.Params
	SRID         int
	GeoTransform raster.GeoTransform
	Value        float64
	Nodata       *float64
}

// New creates the raster described by spec with driver.
func New(t *testing.T, driver raster.Driver, spec Spec) raster.Dataset {
	t.Helper()

	ds, err := driver.Create(spec.Params)
	require.NoError(t, err)
	require.NoError(t, ds.SetSRID(spec.SRID))
	require.NoError(t, ds.SetGeoTransform(spec.GeoTransform))

	if spec.Params.Bands == 0 {
		return ds
	}
	code, err := spec.Params.Type.PackCode()
	require.NoError(t, err)

	pixels := spec.Params.Width * spec.Params.Height
	data := make([]byte, 0, pixels*code.Width())
	for range pixels {
		data, err = codec.AppendValue(data, code, spec.Value)
		require.NoError(t, err)
	}
	for band := range spec.Params.Bands {
		require.NoError(t, ds.WriteBlock(band, 0, 0, spec.Params.Width, spec.Params.Height, data))
		if spec.Nodata != nil {
			require.NoError(t, ds.SetNodata(band, *spec.Nodata))
		}
	}
	return ds
}

func Ptr[T any](v T) *T { return &v }

package tiler_test

import (
	"fmt"
	"testing"

	"github.com/eak1mov/go-pgraster/internal/rastertest"
	"github.com/eak1mov/go-pgraster/pixel"
	"github.com/eak1mov/go-pgraster/raster"
	"github.com/eak1mov/go-pgraster/tile"
	"github.com/eak1mov/go-pgraster/tiler"
	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
	"github.com/stretchr/testify/require"
)

// mercatorSource is a 150x150 pixel raster of 100 m pixels in EPSG:3857,
// covering tiles (552..553, 858..859) at zoom 11.
func mercatorSource(t *testing.T) raster.Dataset {
	return rastertest.New(t, raster.NewMemDriver(), rastertest.Spec{
		Params:       raster.Params{Name: "src", Width: 150, Height: 150, Bands: 1, Type: pixel.Byte},
		SRID:         raster.SRIDWebMercator,
		GeoTransform: raster.GeoTransform{-9230000, 100, 0, 3240000, 0, -100},
		Value:        7,
		Nodata:       rastertest.Ptr(0.0),
	})
}

func TestTileScale(t *testing.T) {
	grid := tiler.DefaultGrid()
	require.InDelta(t, 76.43702828517625, grid.TileScale(11), 1e-6)
	require.InDelta(t, 156543.03392804097, grid.TileScale(0), 1e-6)
	require.Equal(t, grid.TileScale(11)/2, grid.TileScale(12))
}

func TestTileBounds(t *testing.T) {
	grid := tiler.DefaultGrid()
	got := grid.TileBounds(tile.ID{X: 552, Y: 858, Z: 11})
	want := orb.Bound{
		Min: orb.Point{-9236039.001754418, 3228700.074765846},
		Max: orb.Point{-9216471.122513412, 3248267.9540068507},
	}
	require.InDelta(t, want.Min[0], got.Min[0], 1e-6)
	require.InDelta(t, want.Min[1], got.Min[1], 1e-6)
	require.InDelta(t, want.Max[0], got.Max[0], 1e-6)
	require.InDelta(t, want.Max[1], got.Max[1], 1e-6)

	world := grid.TileBounds(tile.ID{})
	require.InDelta(t, -grid.Shift, world.Min[0], 1e-6)
	require.InDelta(t, grid.Shift, world.Max[1], 1e-6)
}

func TestTileBoundsLonLat(t *testing.T) {
	grid := tiler.DefaultGrid()
	for _, id := range []tile.ID{{X: 0, Y: 0, Z: 0}, {X: 552, Y: 858, Z: 11}, {X: 3, Y: 1, Z: 2}} {
		want := maptile.New(uint32(id.X), uint32(id.Y), maptile.Zoom(id.Z)).Bound()
		got := grid.TileBounds(id)
		gotMin := project.Mercator.ToWGS84(got.Min)
		gotMax := project.Mercator.ToWGS84(got.Max)
		require.InDeltaf(t, want.Min.Lon(), gotMin.Lon(), 1e-6, "%v", id)
		require.InDeltaf(t, want.Min.Lat(), gotMin.Lat(), 1e-6, "%v", id)
		require.InDeltaf(t, want.Max.Lon(), gotMax.Lon(), 1e-6, "%v", id)
		require.InDeltaf(t, want.Max.Lat(), gotMax.Lat(), 1e-6, "%v", id)
	}
}

func TestTileBoundsInverse(t *testing.T) {
	grid := tiler.DefaultGrid()
	for _, id := range []tile.ID{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 1},
		{X: 552, Y: 858, Z: 11},
		{X: 1105, Y: 1717, Z: 12},
		{X: 131071, Y: 0, Z: 17},
		{X: 77777, Y: 99999, Z: 18},
	} {
		r := grid.IndexRange(grid.TileBounds(id), id.Z)
		require.Truef(t, r.Contains(id.X, id.Y), "%v not in %+v", id, r)
	}
}

func TestIndexRange(t *testing.T) {
	tl, err := tiler.New(mercatorSource(t))
	require.NoError(t, err)

	want := tile.Range{MinX: 552, MinY: 858, MaxX: 553, MaxY: 859}
	if diff := cmp.Diff(want, tl.TileIndexRange(11)); diff != "" {
		t.Errorf("TileIndexRange(11) mismatch (-want +got):\n%v", diff)
	}
	require.Equal(t, tile.Range{}, tl.TileIndexRange(0))
	require.Equal(t, tile.Range{MinX: 276, MinY: 429, MaxX: 276, MaxY: 429}, tl.TileIndexRange(10))
}

func TestMaxZoomLevel(t *testing.T) {
	tl, err := tiler.New(mercatorSource(t), tiler.WithZoomDown(false))
	require.NoError(t, err)
	require.Equal(t, 11, tl.MaxZoomLevel())

	tl, err = tiler.New(mercatorSource(t))
	require.NoError(t, err)
	require.Equal(t, 12, tl.MaxZoomLevel())
}

func TestZoomSelection(t *testing.T) {
	grid := tiler.DefaultGrid()
	for _, tc := range []struct {
		scale    float64
		zoomDown bool
		want     int
	}{
		{grid.TileScale(5), false, 5},
		{grid.TileScale(5), true, 6},
		{grid.TileScale(5) * 1.5, false, 5},
		{grid.TileScale(5) * 0.99, false, 6},
		{1e9, false, 1},
		{0.1, false, 18},
		{0.1, true, 19},
	} {
		t.Run(fmt.Sprintf("%v/%v", tc.scale, tc.zoomDown), func(t *testing.T) {
			src := rastertest.New(t, raster.NewMemDriver(), rastertest.Spec{
				Params:       raster.Params{Width: 4, Height: 4, Bands: 1, Type: pixel.Byte},
				SRID:         raster.SRIDWebMercator,
				GeoTransform: raster.GeoTransform{0, tc.scale, 0, 0, 0, -tc.scale},
			})
			tl, err := tiler.New(src, tiler.WithZoomDown(tc.zoomDown))
			require.NoError(t, err)
			require.Equal(t, tc.want, tl.MaxZoomLevel())
		})
	}
}

func TestGetTile(t *testing.T) {
	tl, err := tiler.New(mercatorSource(t))
	require.NoError(t, err)

	ds, err := tl.GetTile(tile.ID{X: 552, Y: 858, Z: 11})
	require.NoError(t, err)
	require.Equal(t, "src-11-552-858", ds.Name())
	require.Equal(t, 256, ds.Width())
	require.Equal(t, 256, ds.Height())
	require.Equal(t, raster.SRIDWebMercator, ds.SRID())

	gt := ds.GeoTransform()
	require.InDelta(t, -9236039.001754418, gt[0], 1e-6)
	require.InDelta(t, 3248267.9540068507, gt[3], 1e-6)
	require.InDelta(t, 76.43702828517625, gt[1], 1e-9)
	require.InDelta(t, -76.43702828517625, gt[5], 1e-9)

	nodata, ok, err := ds.Nodata(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0.0, nodata)

	// The source starts 79 pixels right of the tile's left edge.
	corner, err := ds.ReadBlock(0, 0, 0, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{0}, corner)

	inside, err := ds.ReadBlock(0, 200, 200, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{7}, inside)
}

func TestGetTileCustomSize(t *testing.T) {
	tl, err := tiler.New(mercatorSource(t), tiler.WithTileSize(64))
	require.NoError(t, err)

	ds, err := tl.GetTile(tile.ID{X: 552, Y: 858, Z: 11})
	require.NoError(t, err)
	require.Equal(t, 64, ds.Width())
	require.InDelta(t, 4*76.43702828517625, ds.GeoTransform()[1], 1e-9)
	// A 64 pixel grid reaches the same zoom with 4x coarser pixels.
	require.Equal(t, 14, tl.MaxZoomLevel())
}

func TestTiles(t *testing.T) {
	tl, err := tiler.New(mercatorSource(t), tiler.WithZoomDown(false))
	require.NoError(t, err)

	var ids []tile.ID
	for id, ds := range tl.Tiles() {
		require.Equal(t, 256, ds.Width())
		ids = append(ids, id)
	}
	require.Len(t, ids, 15)
	require.Equal(t, 15, tl.Count())

	want := []tile.ID{
		{X: 0, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 1},
		{X: 1, Y: 1, Z: 2},
	}
	require.Equal(t, want, ids[:3])
	wantLast := []tile.ID{
		{X: 552, Y: 858, Z: 11},
		{X: 552, Y: 859, Z: 11},
		{X: 553, Y: 858, Z: 11},
		{X: 553, Y: 859, Z: 11},
	}
	require.Equal(t, wantLast, ids[11:])

	// The sequence is restartable.
	var again []tile.ID
	for id := range tl.TileIDs() {
		again = append(again, id)
	}
	require.Equal(t, ids, again)
}

func TestTilesZoomDownCount(t *testing.T) {
	tl, err := tiler.New(mercatorSource(t))
	require.NoError(t, err)
	require.Equal(t, 24, tl.Count())
	require.Equal(t, tile.Range{MinX: 1104, MinY: 1716, MaxX: 1106, MaxY: 1718}, tl.TileIndexRange(12))
}

func TestTilesBreak(t *testing.T) {
	tl, err := tiler.New(mercatorSource(t))
	require.NoError(t, err)

	count := 0
	for range tl.Tiles() {
		count++
		if count == 3 {
			break
		}
	}
	require.Equal(t, 3, count)
}

func TestReprojectedSource(t *testing.T) {
	src := rastertest.New(t, raster.NewMemDriver(), rastertest.Spec{
		Params:       raster.Params{Name: "wgs", Width: 100, Height: 100, Bands: 1, Type: pixel.Int16},
		SRID:         raster.SRIDWGS84,
		GeoTransform: raster.GeoTransform{-83, 0.01, 0, 28, 0, -0.01},
		Value:        -5,
	})

	tl, err := tiler.New(src, tiler.WithZoomDown(false))
	require.NoError(t, err)
	require.Equal(t, raster.SRIDWGS84, src.SRID())
	require.Equal(t, raster.SRIDWebMercator, tl.Source().SRID())
	require.Equal(t, "wgs_warped", tl.Source().Name())

	// One degree of longitude over 100 pixels is ~1113 m per pixel.
	require.InDelta(t, 1113.1949, tl.Source().GeoTransform()[1], 1e-3)
	require.Equal(t, 8, tl.MaxZoomLevel())
	require.Equal(t, tile.Range{}, tl.TileIndexRange(0))
}

func TestEngineErrors(t *testing.T) {
	src := rastertest.New(t, raster.NewMemDriver(), rastertest.Spec{
		Params: raster.Params{Width: 4, Height: 4, Bands: 1, Type: pixel.Byte},
		SRID:   3086,
	})
	_, err := tiler.New(src)
	require.ErrorIs(t, err, raster.ErrUnsupportedTransform)

	tl, err := tiler.New(mercatorSource(t), tiler.WithResampling(raster.Bilinear))
	require.NoError(t, err)
	_, err = tl.GetTile(tile.ID{})
	require.ErrorIs(t, err, raster.ErrUnsupportedResampling)
	require.ErrorIs(t, tl.VisitTiles(func(tile.ID, raster.Dataset) error { return nil }), raster.ErrUnsupportedResampling)
}

func TestTilesPanicsOnWarpError(t *testing.T) {
	tl, err := tiler.New(mercatorSource(t), tiler.WithResampling(raster.Bilinear))
	require.NoError(t, err)

	require.Panics(t, func() {
		for range tl.Tiles() {
		}
	})
}

func TestInvalidOptions(t *testing.T) {
	_, err := tiler.New(mercatorSource(t), tiler.WithTileSize(0))
	require.ErrorIs(t, err, tiler.ErrInvalidOption)

	tl, err := tiler.New(mercatorSource(t), tiler.WithWorldSize(1000), tiler.WithTileShift(0))
	require.NoError(t, err)
	require.Equal(t, 0.0, tl.Grid().Shift)

	tl, err = tiler.New(mercatorSource(t), tiler.WithWorldSize(1000))
	require.NoError(t, err)
	require.Equal(t, 500.0, tl.Grid().Shift)
}

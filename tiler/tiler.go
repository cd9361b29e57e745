// Package tiler cuts a georeferenced raster into a pyramid of square tiles
// aligned to the XYZ/TMS grid.
package tiler

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/eak1mov/go-pgraster/raster"
	"github.com/eak1mov/go-pgraster/tile"
	"github.com/paulmach/orb"
)

var ErrInvalidOption = errors.New("pgraster: invalid tiler option")

type config struct {
	grid       Grid
	shiftSet   bool
	srid       int
	zoomDown   bool
	resampling raster.Resampling
	logger     *slog.Logger
}

type Option func(*config)

// WithTileSize sets the tile side in pixels. Default is 256.
func WithTileSize(size int) Option {
	return func(c *config) { c.grid.TileSize = size }
}

// WithSRID sets the spatial reference of the tiles. Default is EPSG:3857.
func WithSRID(srid int) Option {
	return func(c *config) { c.srid = srid }
}

// WithWorldSize sets the span of the world square in units of the tile SRID.
// Unless WithTileShift is also given, the shift follows as half the span.
func WithWorldSize(size float64) Option {
	return func(c *config) { c.grid.WorldSize = size }
}

func WithTileShift(shift float64) Option {
	return func(c *config) {
		c.grid.Shift = shift
		c.shiftSet = true
	}
}

// WithZoomDown makes MaxZoomLevel go one level finer than the source. Default is true.
func WithZoomDown(zoomDown bool) Option {
	return func(c *config) { c.zoomDown = zoomDown }
}

func WithResampling(resampling raster.Resampling) Option {
	return func(c *config) { c.resampling = resampling }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Tiler produces the tiles of one source dataset. The source is only read,
// so GetTile may be called from several goroutines at once.
type Tiler struct {
	source     raster.Dataset
	grid       Grid
	srid       int
	zoomDown   bool
	resampling raster.Resampling
	logger     *slog.Logger
}

// New binds a Tiler to src. A source in another spatial reference than the
// tiles is warped once here; src itself is left untouched. Errors from the
// warp are returned as the engine reported them.
func New(src raster.Dataset, opts ...Option) (*Tiler, error) {
	c := config{
		grid:       DefaultGrid(),
		srid:       raster.SRIDWebMercator,
		zoomDown:   true,
		resampling: raster.NearestNeighbour,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if !c.shiftSet {
		c.grid.Shift = c.grid.WorldSize / 2
	}
	if c.grid.TileSize < 1 || c.grid.WorldSize <= 0 {
		return nil, fmt.Errorf("%w: tile size %d, world size %v", ErrInvalidOption, c.grid.TileSize, c.grid.WorldSize)
	}

	source := src
	if src.SRID() != c.srid {
		c.logger.Debug("pgraster: reprojecting source", "name", src.Name(), "from", src.SRID(), "to", c.srid)
		warped, err := src.Warp(raster.WarpParams{SRID: c.srid, Resampling: c.resampling})
		if err != nil {
			return nil, err
		}
		source = warped
	}

	return &Tiler{
		source:     source,
		grid:       c.grid,
		srid:       c.srid,
		zoomDown:   c.zoomDown,
		resampling: c.resampling,
		logger:     c.logger,
	}, nil
}

// Source returns the dataset tiles are cut from, in the tile SRID.
func (t *Tiler) Source() raster.Dataset { return t.source }

func (t *Tiler) Grid() Grid { return t.grid }

// MaxZoomLevel returns the finest zoom level generated for the source.
func (t *Tiler) MaxZoomLevel() int {
	zoom := t.grid.ZoomForScale(t.source.GeoTransform()[1])
	if t.zoomDown {
		zoom++
	}
	return zoom
}

// TileIndexRange returns the tiles at zoom covering the source extent.
func (t *Tiler) TileIndexRange(zoom int) tile.Range {
	return t.grid.IndexRange(t.source.Extent(), zoom)
}

func (t *Tiler) TileBounds(id tile.ID) orb.Bound {
	return t.grid.TileBounds(id)
}

func (t *Tiler) TileScale(zoom int) float64 {
	return t.grid.TileScale(zoom)
}

// GetTile warps the source into a TileSize x TileSize dataset covering id.
// Pixels outside the source hold the band nodata value, or zero.
func (t *Tiler) GetTile(id tile.ID) (raster.Dataset, error) {
	bound := t.grid.TileBounds(id)
	scale := t.grid.TileScale(id.Z)
	gt := raster.NewGeoTransform(orb.Point{bound.Min[0], bound.Max[1]}, orb.Point{scale, -scale}, orb.Point{})
	return t.source.Warp(raster.WarpParams{
		Name:         fmt.Sprintf("%s-%d-%d-%d", t.source.Name(), id.Z, id.X, id.Y),
		SRID:         t.srid,
		GeoTransform: &gt,
		Width:        t.grid.TileSize,
		Height:       t.grid.TileSize,
		Resampling:   t.resampling,
	})
}

// TileIDs returns the IDs of all tiles in generation order: zoom levels from
// 0 to MaxZoomLevel, then columns, then rows.
func (t *Tiler) TileIDs() iter.Seq[tile.ID] {
	return func(yield func(tile.ID) bool) {
		for zoom := range t.MaxZoomLevel() + 1 {
			r := t.TileIndexRange(zoom)
			t.logger.Debug("pgraster: tiling zoom level", "zoom", zoom, "range", r, "count", r.Count())
			for x := r.MinX; x <= r.MaxX; x++ {
				for y := r.MinY; y <= r.MaxY; y++ {
					if !yield(tile.ID{X: x, Y: y, Z: zoom}) {
						return
					}
				}
			}
		}
	}
}

// Count returns the number of tiles VisitTiles produces.
func (t *Tiler) Count() int {
	count := 0
	for zoom := range t.MaxZoomLevel() + 1 {
		count += t.TileIndexRange(zoom).Count()
	}
	return count
}

// VisitTiles implements tile.Visitor: it warps every tile in TileIDs order.
func (t *Tiler) VisitTiles(visitor func(tile.ID, raster.Dataset) error) error {
	for id := range t.TileIDs() {
		ds, err := t.GetTile(id)
		if err != nil {
			return err
		}
		if err := visitor(id, ds); err != nil {
			return err
		}
	}
	return nil
}

// Tiles returns a lazy sequence of all tiles. Each pass warps the tiles again.
//
// The sequence panics with the engine error if a warp fails. Callers that
// must not panic, or that use a resampling the engine may reject, should call
// VisitTiles, which returns the same error.
func (t *Tiler) Tiles() iter.Seq2[tile.ID, raster.Dataset] {
	return tile.IterTiles(t)
}

// Package raster defines the raster engine boundary: datasets with typed
// bands, a geotransform and a spatial reference, plus an in-memory engine.
package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/eak1mov/go-pgraster/pixel"
	"github.com/paulmach/orb"
)

var (
	ErrInvalidParams         = errors.New("pgraster: invalid raster parameters")
	ErrBandIndex             = errors.New("pgraster: band index out of range")
	ErrBlockBounds           = errors.New("pgraster: block out of raster bounds")
	ErrBlockSize             = errors.New("pgraster: block data size mismatch")
	ErrSingularGeoTransform  = errors.New("pgraster: geotransform is not invertible")
	ErrUnsupportedTransform  = errors.New("pgraster: unsupported spatial reference transform")
	ErrUnsupportedResampling = errors.New("pgraster: unsupported resampling algorithm")
)

// GeoTransform maps pixel (col, row) to projected coordinates, in GDAL order:
// origin x, scale x, skew x, origin y, skew y, scale y.
type GeoTransform [6]float64

// DefaultGeoTransform is the identity pixel grid of a freshly created dataset.
var DefaultGeoTransform = GeoTransform{0, 1, 0, 0, 0, 1}

func NewGeoTransform(origin, scale, skew orb.Point) GeoTransform {
	return GeoTransform{origin[0], scale[0], skew[0], origin[1], skew[1], scale[1]}
}

func (g GeoTransform) Origin() orb.Point { return orb.Point{g[0], g[3]} }
func (g GeoTransform) Scale() orb.Point  { return orb.Point{g[1], g[5]} }
func (g GeoTransform) Skew() orb.Point   { return orb.Point{g[2], g[4]} }

// Apply returns the projected coordinates of pixel position (col, row).
func (g GeoTransform) Apply(col, row float64) orb.Point {
	return orb.Point{
		g[0] + col*g[1] + row*g[2],
		g[3] + col*g[4] + row*g[5],
	}
}

// Invert returns the transform from projected coordinates back to pixel positions.
func (g GeoTransform) Invert() (GeoTransform, error) {
	det := g[1]*g[5] - g[2]*g[4]
	if det == 0 || math.IsNaN(det) {
		return GeoTransform{}, ErrSingularGeoTransform
	}
	a, b, c, d := g[5]/det, -g[2]/det, -g[4]/det, g[1]/det
	return GeoTransform{
		-a*g[0] - b*g[3], a, b,
		-c*g[0] - d*g[3], c, d,
	}, nil
}

// Bound returns the bounding box of a width x height pixel grid.
func (g GeoTransform) Bound(width, height int) orb.Bound {
	w, h := float64(width), float64(height)
	bound := orb.Bound{Min: g.Apply(0, 0), Max: g.Apply(0, 0)}
	for _, p := range []orb.Point{g.Apply(w, 0), g.Apply(0, h), g.Apply(w, h)} {
		bound = bound.Extend(p)
	}
	return bound
}

// Params describes a dataset to create.
type Params struct {
	Name   string
	Width  int
	Height int
	Bands  int
	Type   pixel.EngineType
}

func (p Params) validate() error {
	if p.Width < 1 || p.Height < 1 || p.Bands < 0 {
		return fmt.Errorf("%w: size %dx%d with %d bands", ErrInvalidParams, p.Width, p.Height, p.Bands)
	}
	if p.Bands > 0 && !p.Type.Native() {
		return fmt.Errorf("%w: %v", pixel.ErrUnsupportedPixelType, p.Type)
	}
	return nil
}

type Resampling int

const (
	NearestNeighbour Resampling = iota
	Bilinear
	Cubic
	CubicSpline
	Lanczos
	Average
	Mode
)

var resamplingNames = [...]string{"NearestNeighbour", "Bilinear", "Cubic", "CubicSpline", "Lanczos", "Average", "Mode"}

func (r Resampling) String() string {
	if r >= 0 && int(r) < len(resamplingNames) {
		return resamplingNames[r]
	}
	return fmt.Sprintf("Resampling(%d)", int(r))
}

// WarpParams describes the target grid of a reprojection.
// Zero values keep the source SRID, derive the geotransform from the
// reprojected source extent, and keep the source pixel dimensions.
type WarpParams struct {
	Name         string
	SRID         int
	GeoTransform *GeoTransform
	Width        int
	Height       int
	Resampling   Resampling
}

// Dataset is a multi-band raster held by an engine.
// Band indices are zero-based. All bands share one pixel type.
type Dataset interface {
	Name() string
	Width() int
	Height() int
	BandCount() int
	PixelType() pixel.EngineType

	GeoTransform() GeoTransform
	SetGeoTransform(gt GeoTransform) error
	SRID() int
	SetSRID(srid int) error
	Extent() orb.Bound

	// ReadBlock returns a copy of the w x h block at (x, y) in row-major order.
	ReadBlock(band, x, y, w, h int) ([]byte, error)
	WriteBlock(band, x, y, w, h int, data []byte) error

	Nodata(band int) (float64, bool, error)
	SetNodata(band int, value float64) error
	DeleteNodata(band int) error

	// Warp resamples the dataset into a new dataset; the receiver is not modified.
	Warp(params WarpParams) (Dataset, error)
}

// Driver creates datasets.
type Driver interface {
	Name() string
	Create(params Params) (Dataset, error)
}

package tiler

import (
	"math"

	"github.com/eak1mov/go-pgraster/tile"
	"github.com/paulmach/orb"
)

const (
	DefaultTileSize = 256

	// EarthRadius is the WGS84 equatorial radius in meters.
	EarthRadius = 6378137

	// minZoomTested and maxZoomTested bound the levels considered by ZoomForScale.
	minZoomTested = 1
	maxZoomTested = 18
)

// DefaultWorldSize is the span of the EPSG:3857 world square in meters.
var DefaultWorldSize = 2 * math.Pi * EarthRadius

// Grid is the tile pyramid over a square world of WorldSize units, with the
// tile origin moved Shift units left of and above the projection origin.
type Grid struct {
	TileSize  int
	WorldSize float64
	Shift     float64
}

// DefaultGrid returns the web mercator pyramid of 256 pixel tiles.
func DefaultGrid() Grid {
	return Grid{
		TileSize:  DefaultTileSize,
		WorldSize: DefaultWorldSize,
		Shift:     DefaultWorldSize / 2,
	}
}

// TileSpan returns the side of one tile at zoom, in world units.
func (g Grid) TileSpan(zoom int) float64 {
	return g.WorldSize / math.Exp2(float64(zoom))
}

// TileScale returns the size of one tile pixel at zoom, in world units.
func (g Grid) TileScale(zoom int) float64 {
	return g.TileSpan(zoom) / float64(g.TileSize)
}

func (g Grid) TileBounds(id tile.ID) orb.Bound {
	span := g.TileSpan(id.Z)
	return orb.Bound{
		Min: orb.Point{float64(id.X)*span - g.Shift, g.Shift - float64(id.Y+1)*span},
		Max: orb.Point{float64(id.X+1)*span - g.Shift, g.Shift - float64(id.Y)*span},
	}
}

// IndexRange returns the tiles at zoom touched by bound. Tile rows grow
// downward while world y grows upward, so the top edge selects MinY.
//
// Bounds outside the world square produce indices outside [0, 2^zoom).
func (g Grid) IndexRange(bound orb.Bound, zoom int) tile.Range {
	span := g.TileSpan(zoom)
	return tile.Range{
		MinX: int(math.Floor((bound.Min[0] + g.Shift) / span)),
		MinY: int(math.Floor((g.Shift - bound.Max[1]) / span)),
		MaxX: int(math.Floor((bound.Max[0] + g.Shift) / span)),
		MaxY: int(math.Floor((g.Shift - bound.Min[1]) / span)),
	}
}

// ZoomForScale returns the coarsest level in 1..18 whose pixel is no larger
// than scale, or 18 when every level is coarser.
func (g Grid) ZoomForScale(scale float64) int {
	scale = math.Abs(scale)
	for zoom := minZoomTested; zoom <= maxZoomTested; zoom++ {
		if g.TileScale(zoom) <= scale {
			return zoom
		}
	}
	return maxZoomTested
}

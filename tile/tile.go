// Package tile provides common tile interfaces and types.
package tile

import (
	"fmt"

	"github.com/eak1mov/go-pgraster/raster"
)

// ID represents tile coordinates in the XYZ scheme (Tiled web map).
// Y grows downward from the top of the world.
//
// Coordinates are signed: a raster extending past the world bounds yields
// indices outside [0, 2^Z), which Valid reports.
type ID struct {
	X int
	Y int
	Z int
}

func (t ID) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

func (t ID) Valid() bool {
	return t.Z >= 0 && t.Z < 32 && t.X >= 0 && t.Y >= 0 && t.X < (1<<t.Z) && t.Y < (1<<t.Z)
}

// Parent returns the tile one level up that covers t. The root tile is its own parent.
func (t ID) Parent() ID {
	if t.Z == 0 {
		return t
	}
	return ID{X: t.X >> 1, Y: t.Y >> 1, Z: t.Z - 1}
}

// Children returns the four tiles one level down covered by t,
// in row-major order: top-left, top-right, bottom-left, bottom-right.
func (t ID) Children() [4]ID {
	x, y, z := t.X<<1, t.Y<<1, t.Z+1
	return [4]ID{
		{X: x, Y: y, Z: z},
		{X: x + 1, Y: y, Z: z},
		{X: x, Y: y + 1, Z: z},
		{X: x + 1, Y: y + 1, Z: z},
	}
}

// TMSRow returns the row of t counted from the bottom of the world, as TMS
// and MBTiles store it.
func (t ID) TMSRow() int {
	return (1 << t.Z) - 1 - t.Y
}

// Range is an inclusive rectangle of tile indices at one zoom level.
type Range struct {
	MinX int
	MinY int
	MaxX int
	MaxY int
}

func (r Range) Contains(x, y int) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Count returns the number of tiles in r.
func (r Range) Count() int {
	if r.MaxX < r.MinX || r.MaxY < r.MinY {
		return 0
	}
	return (r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1)
}

// Writer defines an interface for writing raster tiles to a tileset.
type Writer interface {
	// WriteTile writes a single tile to the tileset.
	WriteTile(tileID ID, ds raster.Dataset) error

	// Finalize completes the writing process: flushes buffers and writes indices.
	// It must be called before closing the Writer.
	Finalize() error
}

type Reader interface {
	// ReadTile reads a single tile from the tileset.
	// If the tile does not exist, it returns a nil dataset with no error.
	ReadTile(tileID ID) (raster.Dataset, error)
}

type Visitor interface {
	// VisitTiles visits all tiles in the tileset, calling the visitor for each.
	// It returns an error if visiting fails.
	// Order of tiles, upfront cpu and memory consumption are implementation-defined.
	VisitTiles(visitor func(ID, raster.Dataset) error) error
}

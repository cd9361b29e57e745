package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/eak1mov/go-pgraster/tile"
	"github.com/eak1mov/go-pgraster/tiler"
	"github.com/google/subcommands"
	"github.com/paulmach/orb/maptile"
)

type boundsCmd struct {
	x, y, z  int
	tileSize int
}

func (c *boundsCmd) Name() string     { return "bounds" }
func (c *boundsCmd) Synopsis() string { return "print the EPSG:3857 and EPSG:4326 bounds of a tile" }
func (c *boundsCmd) Usage() string {
	return "pgraster bounds -x <x> -y <y> -z <zoom> [-tilesize <pixels>]\n"
}
func (c *boundsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.x, "x", 0, "Tile column")
	f.IntVar(&c.y, "y", 0, "Tile row, counted from the top")
	f.IntVar(&c.z, "z", 0, "Zoom level")
	f.IntVar(&c.tileSize, "tilesize", tiler.DefaultTileSize, "Tile size in pixels")
}

func (c *boundsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	id := tile.ID{X: c.x, Y: c.y, Z: c.z}
	if !id.Valid() || c.tileSize < 1 {
		log.Printf("invalid tile %v of %d pixels", id, c.tileSize)
		return subcommands.ExitUsageError
	}

	grid := tiler.DefaultGrid()
	grid.TileSize = c.tileSize
	bound := grid.TileBounds(id)
	fmt.Printf("xmin=%v ymin=%v xmax=%v ymax=%v scale=%v\n",
		bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1], grid.TileScale(id.Z))

	lonlat := maptile.New(uint32(id.X), uint32(id.Y), maptile.Zoom(id.Z)).Bound()
	fmt.Printf("lonmin=%v latmin=%v lonmax=%v latmax=%v\n",
		lonlat.Min.Lon(), lonlat.Min.Lat(), lonlat.Max.Lon(), lonlat.Max.Lat())
	return subcommands.ExitSuccess
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"iter"
	"log"
	"strconv"
	"sync"

	"github.com/eak1mov/go-pgraster/raster"
	"github.com/eak1mov/go-pgraster/tile"
	"github.com/eak1mov/go-pgraster/tiler"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

type tileCmd struct {
	inputPath    string
	outputFormat string
	outputPath   string
	tileSize     int
	srid         int
	zoomDown     bool
	padded       bool
	jobs         int
}

func (c *tileCmd) Name() string     { return "tile" }
func (c *tileCmd) Synopsis() string { return "cut a hex WKB raster into a tile pyramid" }
func (c *tileCmd) Usage() string {
	return "pgraster tile -i <path> -o <path> [-of <format> -tilesize <pixels> -srid <srid> -zoomdown -j <jobs>]\n"
}
func (c *tileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input file with hex WKB")
	f.StringVar(&c.outputPath, "o", "", "Output path (file for mbtiles, pattern for xyz)")
	f.StringVar(&c.outputFormat, "of", "", "Output format (mbtiles, xyz)")
	f.IntVar(&c.tileSize, "tilesize", tiler.DefaultTileSize, "Tile size in pixels")
	f.IntVar(&c.srid, "srid", raster.SRIDWebMercator, "Tile spatial reference")
	f.BoolVar(&c.zoomDown, "zoomdown", true, "Generate one zoom level finer than the source")
	f.BoolVar(&c.padded, "padded", false, "Bands always carry a nodata slot")
	f.IntVar(&c.jobs, "j", 1, "Number of tiles warped concurrently")
}

func (c *tileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.jobs < 1 {
		log.Printf("invalid number of jobs: %d", c.jobs)
		return subcommands.ExitUsageError
	}
	opts := wkbOptions(c.padded)

	doc, err := readDocument(c.inputPath, opts...)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	driver := raster.NewMemDriver(raster.WithMemLogger(logger))
	src, err := doc.ToRaster(driver, c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	tl, err := tiler.New(src,
		tiler.WithTileSize(c.tileSize),
		tiler.WithSRID(c.srid),
		tiler.WithZoomDown(c.zoomDown),
		tiler.WithLogger(logger),
	)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	metadata := map[string]string{
		"minzoom": "0",
		"maxzoom": strconv.Itoa(tl.MaxZoomLevel()),
		"srid":    strconv.Itoa(c.srid),
	}
	writer, err := openWriter(deduceFormat(c.outputFormat, c.outputPath), c.outputPath, metadata, opts)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if closer, ok := writer.(io.Closer); ok {
		defer closer.Close()
	}

	bar := progressbar.NewOptions(gridTileCount(tl), progressbar.OptionShowIts(), progressbar.OptionShowCount())
	err = writeTiles(ctx, tl, writer, c.jobs, func() { bar.Add(1) })
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	if err := writer.Finalize(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

// gridTileIDs drops the tiles past the world edge. A source reaching the edge
// gets an index range one tile wider than the grid at low zooms.
func gridTileIDs(tl *tiler.Tiler) iter.Seq[tile.ID] {
	return func(yield func(tile.ID) bool) {
		for id := range tl.TileIDs() {
			if !id.Valid() {
				continue
			}
			if !yield(id) {
				return
			}
		}
	}
}

func gridTileCount(tl *tiler.Tiler) int {
	count := 0
	for range gridTileIDs(tl) {
		count++
	}
	return count
}

// writeTiles warps tiles on up to jobs goroutines and writes them one at a time.
func writeTiles(ctx context.Context, tl *tiler.Tiler, writer tile.Writer, jobs int, progress func()) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	var mu sync.Mutex
	for id := range gridTileIDs(tl) {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ds, err := tl.GetTile(id)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if err := writer.WriteTile(id, ds); err != nil {
				return err
			}
			progress()
			return nil
		})
	}
	return g.Wait()
}

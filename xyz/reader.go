package xyz

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/eak1mov/go-pgraster/raster"
	"github.com/eak1mov/go-pgraster/tile"
	"github.com/eak1mov/go-pgraster/wkb"
)

// Reader implements tile.Reader and tile.Visitor interfaces for tiles in XYZ format.
type Reader struct {
	filePattern string
	rootDir     string
	pathRegexp  *regexp.Regexp
	driver      raster.Driver
	wkbOpts     []wkb.Option
}

// NewReader creates a new Reader for the given file pattern (e.g. "/home/user/tiles/{z}/{x}/{y}.wkb").
// Tiles are materialized with driver.
func NewReader(filePattern string, driver raster.Driver, wkbOpts ...wkb.Option) (*Reader, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}
	pathRegexp, err := compilePattern(filePattern)
	if err != nil {
		return nil, err
	}

	path0 := formatPattern(filePattern, tile.ID{X: 0, Y: 0, Z: 0})
	path1 := formatPattern(filePattern, tile.ID{X: 1, Y: 1, Z: 1})
	for path0 != path1 {
		path0 = filepath.Dir(path0)
		path1 = filepath.Dir(path1)
	}

	return &Reader{
		filePattern: filePattern,
		rootDir:     path0,
		pathRegexp:  pathRegexp,
		driver:      driver,
		wkbOpts:     wkbOpts,
	}, nil
}

func (r *Reader) decode(tileID tile.ID, data []byte) (raster.Dataset, error) {
	ds, err := wkb.DecodeRaster(r.driver, strings.TrimSpace(string(data)), r.wkbOpts...)
	if err != nil {
		return nil, fmt.Errorf("tile %v: %w", tileID, err)
	}
	return ds, nil
}

// ReadTile returns the tile at tileID, or nil if its file does not exist.
func (r *Reader) ReadTile(tileID tile.ID) (raster.Dataset, error) {
	if !tileID.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTile, tileID)
	}
	data, err := os.ReadFile(formatPattern(r.filePattern, tileID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.decode(tileID, data)
}

// VisitTiles walks the directory tree under the pattern's fixed prefix.
// Files not matching the pattern are skipped.
func (r *Reader) VisitTiles(visitor func(tile.ID, raster.Dataset) error) error {
	return filepath.WalkDir(r.rootDir, func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		matches := r.pathRegexp.FindStringSubmatch(filePath)
		if matches == nil {
			return nil
		}

		x, _ := strconv.Atoi(matches[r.pathRegexp.SubexpIndex("x")])
		y, _ := strconv.Atoi(matches[r.pathRegexp.SubexpIndex("y")])
		z, _ := strconv.Atoi(matches[r.pathRegexp.SubexpIndex("z")])
		tileID := tile.ID{X: x, Y: y, Z: z}

		data, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}
		ds, err := r.decode(tileID, data)
		if err != nil {
			return err
		}

		return visitor(tileID, ds)
	})
}

package xyz

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/eak1mov/go-pgraster/raster"
	"github.com/eak1mov/go-pgraster/tile"
	"github.com/eak1mov/go-pgraster/wkb"
)

// Writer implements tile.Writer interface for tiles in XYZ format.
type Writer struct {
	filePattern string
	wkbOpts     []wkb.Option
}

// NewWriter creates a new Writer for the given file pattern (e.g. "/home/user/tiles/{z}/{x}/{y}.wkb").
func NewWriter(filePattern string, wkbOpts ...wkb.Option) (*Writer, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}
	return &Writer{filePattern, wkbOpts}, nil
}

func (w *Writer) WriteTile(tileID tile.ID, ds raster.Dataset) error {
	if !tileID.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidTile, tileID)
	}
	text, err := wkb.EncodeRaster(ds, w.wkbOpts...)
	if err != nil {
		return fmt.Errorf("tile %v: %w", tileID, err)
	}

	filePath := formatPattern(w.filePattern, tileID)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath, []byte(text), 0644)
}

func (w *Writer) Finalize() error {
	return nil
}

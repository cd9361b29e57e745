package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/eak1mov/go-pgraster/mb"
	"github.com/eak1mov/go-pgraster/raster"
	"github.com/eak1mov/go-pgraster/tile"
	"github.com/eak1mov/go-pgraster/wkb"
	"github.com/eak1mov/go-pgraster/xyz"
)

func deduceFormat(format, filePath string) string {
	if format == "" && strings.HasSuffix(filePath, ".mbtiles") {
		return "mbtiles"
	}
	return format
}

func wkbOptions(padded bool) []wkb.Option {
	if padded {
		return []wkb.Option{wkb.WithNodataPadding()}
	}
	return nil
}

// readDocument reads a raster from a file holding hex WKB text.
func readDocument(filePath string, opts ...wkb.Option) (*wkb.Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return wkb.Decode(string(bytes.TrimSpace(data)), opts...)
}

type tileReader interface {
	tile.Reader
	tile.Visitor
}

func openReader(format, path string, driver raster.Driver, opts []wkb.Option) (tileReader, error) {
	switch format {
	case "mbtiles":
		return mb.NewReader(path, driver, opts...)
	case "xyz", "":
		return xyz.NewReader(path, driver, opts...)
	default:
		return nil, fmt.Errorf("invalid input format: %q", format)
	}
}

func openWriter(format, path string, metadata map[string]string, opts []wkb.Option) (tile.Writer, error) {
	switch format {
	case "mbtiles":
		return mb.NewWriter(path,
			mb.WithMetadata(metadata),
			mb.WithWKBOptions(opts...),
			mb.WithLogger(logger),
		)
	case "xyz", "":
		return xyz.NewWriter(path, opts...)
	default:
		return nil, fmt.Errorf("invalid output format: %q", format)
	}
}

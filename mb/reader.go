// Package mb stores raster tiles in an MBTiles database. Each tile row holds
// the tile as uppercase hex WKB, the text form a PostGIS raster column accepts.
//
// Note: User must properly initialize the sqlite3 library generic driver
// (e.g. import _ "github.com/mattn/go-sqlite3") before using this package.
package mb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/eak1mov/go-pgraster/raster"
	"github.com/eak1mov/go-pgraster/tile"
	"github.com/eak1mov/go-pgraster/wkb"
)

// Format is the metadata "format" value of tilesets written by this package.
const Format = "pgraster"

var ErrInvalidTile = errors.New("pgraster: tile outside the world grid")

// Reader implements tile.Reader and tile.Visitor interfaces for MBTiles format.
type Reader struct {
	db      *sql.DB
	stmt    *sql.Stmt
	driver  raster.Driver
	wkbOpts []wkb.Option
}

// NewReader opens the MBTiles file at filePath read-only.
// Tiles are materialized with driver and decoded with wkbOpts.
//
// The returned Reader must be closed after use to release database resources.
func NewReader(filePath string, driver raster.Driver, wkbOpts ...wkb.Option) (*Reader, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Reader{db: db, stmt: stmt, driver: driver, wkbOpts: wkbOpts}, nil
}

func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

func (r *Reader) ReadMetadata() (map[string]string, error) {
	metadata := make(map[string]string)

	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metadata, nil
}

func (r *Reader) decode(tileID tile.ID, text string) (raster.Dataset, error) {
	ds, err := wkb.DecodeRaster(r.driver, text, r.wkbOpts...)
	if err != nil {
		return nil, fmt.Errorf("tile %v: %w", tileID, err)
	}
	return ds, nil
}

// ReadTile returns the tile at tileID, or nil if it is not stored.
func (r *Reader) ReadTile(tileID tile.ID) (raster.Dataset, error) {
	if !tileID.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTile, tileID)
	}

	var text string
	if err := r.stmt.QueryRow(tileID.Z, tileID.X, tileID.TMSRow()).Scan(&text); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return r.decode(tileID, text)
}

func (r *Reader) VisitTiles(visitor func(tile.ID, raster.Dataset) error) error {
	rows, err := r.db.Query("SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var x, y, z int
		var text string

		if err := rows.Scan(&z, &x, &y, &text); err != nil {
			return err
		}

		tileID := tile.ID{X: x, Y: (1 << z) - 1 - y, Z: z} // TMS -> XYZ
		ds, err := r.decode(tileID, text)
		if err != nil {
			return err
		}

		if err := visitor(tileID, ds); err != nil {
			return err
		}
	}

	return rows.Err()
}

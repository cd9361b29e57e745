package mb

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eak1mov/go-pgraster/raster"
	"github.com/eak1mov/go-pgraster/tile"
	"github.com/eak1mov/go-pgraster/wkb"
)

// Writer implements tile.Writer interface for MBTiles format.
type Writer struct {
	db      *sql.DB
	stmt    *sql.Stmt
	wkbOpts []wkb.Option
	logger  *slog.Logger
	count   int
}

type writerConfig struct {
	Metadata map[string]string
	WKB      []wkb.Option
	Logger   *slog.Logger
}

type WriterOption func(*writerConfig)

// WithMetadata adds rows to the metadata table. Keys given here override
// the defaults written by NewWriter.
func WithMetadata(metadata map[string]string) WriterOption {
	return func(c *writerConfig) { c.Metadata = metadata }
}

// WithWKBOptions sets the layout tiles are encoded with.
func WithWKBOptions(opts ...wkb.Option) WriterOption {
	return func(c *writerConfig) { c.WKB = opts }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates a new MBTiles file at filePath for raster tiles.
func NewWriter(filePath string, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	var err error
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	_, err = db.Exec(`
		CREATE TABLE metadata (name TEXT, value TEXT);
		CREATE TABLE tiles (
			zoom_level INTEGER,
			tile_column INTEGER,
			tile_row INTEGER,
			tile_data TEXT
		);
	`)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"format": Format,
		"scheme": "tms",
	}
	for k, v := range config.Metadata {
		metadata[k] = v
	}
	for k, v := range metadata {
		_, err = db.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", k, v)
		if err != nil {
			return nil, err
		}
	}

	stmt, err := db.Prepare("INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}

	return &Writer{db: db, stmt: stmt, wkbOpts: config.WKB, logger: config.Logger}, nil
}

func (w *Writer) Close() error {
	return errors.Join(w.stmt.Close(), w.db.Close())
}

// WriteTile stores ds as hex WKB. Rows are flipped to the TMS scheme.
func (w *Writer) WriteTile(tileID tile.ID, ds raster.Dataset) error {
	if !tileID.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidTile, tileID)
	}
	text, err := wkb.EncodeRaster(ds, w.wkbOpts...)
	if err != nil {
		return fmt.Errorf("tile %v: %w", tileID, err)
	}
	if _, err := w.stmt.Exec(tileID.Z, tileID.X, tileID.TMSRow(), text); err != nil {
		return err
	}
	w.count++
	return nil
}

func (w *Writer) Finalize() error {
	w.logger.Debug("pgraster: creating index", "tiles", w.count)
	_, err := w.db.Exec("CREATE UNIQUE INDEX tile_index ON tiles (zoom_level, tile_column, tile_row)")
	w.logger.Debug("pgraster: done!")
	return err
}

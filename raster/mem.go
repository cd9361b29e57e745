package raster

import (
	"fmt"
	"log/slog"

	"github.com/eak1mov/go-pgraster/codec"
	"github.com/eak1mov/go-pgraster/pixel"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	SRIDWGS84        = 4326
	SRIDWebMercator  = 3857
	memDriverName    = "MEM"
	defaultWarpLabel = "_warped"
)

type transformKey struct{ from, to int }

// MemDriver creates datasets held entirely in memory.
// A MemDriver is safe for concurrent use once constructed.
type MemDriver struct {
	transforms map[transformKey]orb.Projection
	logger     *slog.Logger
}

type MemOption func(*MemDriver)

// WithTransform registers the point transform used to warp from one SRID to another.
func WithTransform(from, to int, projection orb.Projection) MemOption {
	return func(d *MemDriver) { d.transforms[transformKey{from, to}] = projection }
}

func WithMemLogger(logger *slog.Logger) MemOption {
	return func(d *MemDriver) { d.logger = logger }
}

// NewMemDriver returns an in-memory driver that knows the EPSG:4326 <-> EPSG:3857 transforms.
func NewMemDriver(opts ...MemOption) *MemDriver {
	d := &MemDriver{
		transforms: map[transformKey]orb.Projection{
			{SRIDWGS84, SRIDWebMercator}: project.WGS84.ToMercator,
			{SRIDWebMercator, SRIDWGS84}: project.Mercator.ToWGS84,
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *MemDriver) Name() string { return memDriverName }

func (d *MemDriver) Create(params Params) (Dataset, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	size := params.Width * params.Height * params.Type.Size()
	bands := make([]memBand, params.Bands)
	for i := range bands {
		bands[i].data = make([]byte, size)
	}
	return &memDataset{
		driver: d,
		name:   params.Name,
		width:  params.Width,
		height: params.Height,
		dtype:  params.Type,
		geo:    DefaultGeoTransform,
		bands:  bands,
	}, nil
}

func (d *MemDriver) transform(from, to int) (orb.Projection, error) {
	if from == to {
		return func(p orb.Point) orb.Point { return p }, nil
	}
	projection, ok := d.transforms[transformKey{from, to}]
	if !ok {
		return nil, fmt.Errorf("%w: %d -> %d", ErrUnsupportedTransform, from, to)
	}
	return projection, nil
}

type memBand struct {
	data      []byte
	nodata    float64
	hasNodata bool
}

type memDataset struct {
	driver *MemDriver
	name   string
	width  int
	height int
	dtype  pixel.EngineType
	geo    GeoTransform
	srid   int
	bands  []memBand
}

func (m *memDataset) Name() string                { return m.name }
func (m *memDataset) Width() int                  { return m.width }
func (m *memDataset) Height() int                 { return m.height }
func (m *memDataset) BandCount() int              { return len(m.bands) }
func (m *memDataset) PixelType() pixel.EngineType { return m.dtype }
func (m *memDataset) GeoTransform() GeoTransform  { return m.geo }
func (m *memDataset) SRID() int                   { return m.srid }

func (m *memDataset) SetGeoTransform(gt GeoTransform) error {
	m.geo = gt
	return nil
}

func (m *memDataset) SetSRID(srid int) error {
	m.srid = srid
	return nil
}

func (m *memDataset) Extent() orb.Bound {
	return m.geo.Bound(m.width, m.height)
}

func (m *memDataset) band(index int) (*memBand, error) {
	if index < 0 || index >= len(m.bands) {
		return nil, fmt.Errorf("%w: %d of %d", ErrBandIndex, index, len(m.bands))
	}
	return &m.bands[index], nil
}

func (m *memDataset) checkBlock(x, y, w, h int) error {
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > m.width || y+h > m.height {
		return fmt.Errorf("%w: %dx%d at (%d, %d) in %dx%d", ErrBlockBounds, w, h, x, y, m.width, m.height)
	}
	return nil
}

func (m *memDataset) ReadBlock(band, x, y, w, h int) ([]byte, error) {
	b, err := m.band(band)
	if err != nil {
		return nil, err
	}
	if err := m.checkBlock(x, y, w, h); err != nil {
		return nil, err
	}
	size := m.dtype.Size()
	rowLen := w * size
	result := make([]byte, 0, h*rowLen)
	for row := y; row < y+h; row++ {
		offset := (row*m.width + x) * size
		result = append(result, b.data[offset:offset+rowLen]...)
	}
	return result, nil
}

func (m *memDataset) WriteBlock(band, x, y, w, h int, data []byte) error {
	b, err := m.band(band)
	if err != nil {
		return err
	}
	if err := m.checkBlock(x, y, w, h); err != nil {
		return err
	}
	size := m.dtype.Size()
	rowLen := w * size
	if len(data) != h*rowLen {
		return fmt.Errorf("%w: got %d bytes, block needs %d", ErrBlockSize, len(data), h*rowLen)
	}
	for i := range h {
		offset := ((y+i)*m.width + x) * size
		copy(b.data[offset:offset+rowLen], data[i*rowLen:(i+1)*rowLen])
	}
	return nil
}

func (m *memDataset) Nodata(band int) (float64, bool, error) {
	b, err := m.band(band)
	if err != nil {
		return 0, false, err
	}
	return b.nodata, b.hasNodata, nil
}

func (m *memDataset) SetNodata(band int, value float64) error {
	b, err := m.band(band)
	if err != nil {
		return err
	}
	b.nodata, b.hasNodata = value, true
	return nil
}

func (m *memDataset) DeleteNodata(band int) error {
	b, err := m.band(band)
	if err != nil {
		return err
	}
	b.nodata, b.hasNodata = 0, false
	return nil
}

// fillValue returns one sample holding the band's nodata value, or zeros.
// A nodata value that does not fit the pixel type falls back to zeros.
func (b *memBand) fillValue(dtype pixel.EngineType) []byte {
	zero := make([]byte, dtype.Size())
	if !b.hasNodata {
		return zero
	}
	code, err := dtype.PackCode()
	if err != nil {
		return zero
	}
	sample, err := codec.AppendValue(nil, code, b.nodata)
	if err != nil {
		return zero
	}
	return sample
}

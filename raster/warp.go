package raster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// extentSamples is the number of points per edge used to reproject an extent.
const extentSamples = 21

func (m *memDataset) Warp(params WarpParams) (Dataset, error) {
	if params.Resampling != NearestNeighbour {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedResampling, params.Resampling)
	}
	srid := params.SRID
	if srid == 0 {
		srid = m.srid
	}
	inverse, err := m.driver.transform(srid, m.srid)
	if err != nil {
		return nil, err
	}

	width, height := params.Width, params.Height
	if width == 0 {
		width = m.width
	}
	if height == 0 {
		height = m.height
	}

	var geo GeoTransform
	if params.GeoTransform != nil {
		geo = *params.GeoTransform
	} else {
		forward, err := m.driver.transform(m.srid, srid)
		if err != nil {
			return nil, err
		}
		bound := reprojectBound(m.Extent(), forward)
		geo = GeoTransform{
			bound.Min[0], (bound.Max[0] - bound.Min[0]) / float64(width), 0,
			bound.Max[1], 0, -(bound.Max[1] - bound.Min[1]) / float64(height),
		}
	}

	name := params.Name
	if name == "" {
		name = m.name + defaultWarpLabel
	}
	dst, err := m.driver.Create(Params{Name: name, Width: width, Height: height, Bands: len(m.bands), Type: m.dtype})
	if err != nil {
		return nil, err
	}
	out := dst.(*memDataset)
	out.geo = geo
	out.srid = srid

	toPixel, err := m.geo.Invert()
	if err != nil {
		return nil, err
	}

	m.driver.logger.Debug("pgraster: warp",
		"name", name, "from", m.srid, "to", srid, "width", width, "height", height)

	size := m.dtype.Size()
	for i := range out.bands {
		out.bands[i].nodata = m.bands[i].nodata
		out.bands[i].hasNodata = m.bands[i].hasNodata
		fill := m.bands[i].fillValue(m.dtype)
		for offset := 0; offset < len(out.bands[i].data); offset += size {
			copy(out.bands[i].data[offset:], fill)
		}
	}

	for row := range height {
		for col := range width {
			p := inverse(geo.Apply(float64(col)+0.5, float64(row)+0.5))
			src := toPixel.Apply(p[0], p[1])
			if !(src[0] >= 0 && src[0] < float64(m.width) && src[1] >= 0 && src[1] < float64(m.height)) {
				continue
			}
			srcOffset := (int(src[1])*m.width + int(src[0])) * size
			dstOffset := (row*width + col) * size
			for i := range out.bands {
				copy(out.bands[i].data[dstOffset:dstOffset+size], m.bands[i].data[srcOffset:srcOffset+size])
			}
		}
	}

	return out, nil
}

// reprojectBound transforms points along the edges of bound and returns their bounding box.
func reprojectBound(bound orb.Bound, projection orb.Projection) orb.Bound {
	var result orb.Bound
	first := true
	for i := range extentSamples {
		t := float64(i) / float64(extentSamples-1)
		x := bound.Min[0] + t*(bound.Max[0]-bound.Min[0])
		y := bound.Min[1] + t*(bound.Max[1]-bound.Min[1])
		for _, p := range []orb.Point{
			{x, bound.Min[1]}, {x, bound.Max[1]},
			{bound.Min[0], y}, {bound.Max[0], y},
		} {
			q := projection(p)
			if math.IsNaN(q[0]) || math.IsNaN(q[1]) || math.IsInf(q[0], 0) || math.IsInf(q[1], 0) {
				continue
			}
			if first {
				result = orb.Bound{Min: q, Max: q}
				first = false
				continue
			}
			result = result.Extend(q)
		}
	}
	return result
}

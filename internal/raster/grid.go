package raster

import (
	"errors"
	"math"
)

var (
	// ErrGridMismatch is returned when images that must share a grid do not.
	ErrGridMismatch = errors.New("raster grids do not match")
)

// Grid is a regular lon/lat grid. OriginLon/OriginLat is the top-left corner
// of the top-left pixel; rows go south, columns go east.
type Grid struct {
	OriginLon   float64 `json:"origin_lon"`
	OriginLat   float64 `json:"origin_lat"`
	PixelWidth  float64 `json:"pixel_width"`
	PixelHeight float64 `json:"pixel_height"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// Size returns the number of pixels in the grid.
func (g Grid) Size() int {
	return g.Width * g.Height
}

// Bounds returns the outer edges of the grid.
func (g Grid) Bounds() Bounds {
	return Bounds{
		MinLon: g.OriginLon,
		MaxLon: g.OriginLon + float64(g.Width)*g.PixelWidth,
		MaxLat: g.OriginLat,
		MinLat: g.OriginLat - float64(g.Height)*g.PixelHeight,
	}
}

// Cell returns the column and row of the pixel containing lon/lat.
func (g Grid) Cell(lon, lat float64) (col, row int, ok bool) {
	if g.PixelWidth <= 0 || g.PixelHeight <= 0 {
		return 0, 0, false
	}
	col = int(math.Floor((lon - g.OriginLon) / g.PixelWidth))
	row = int(math.Floor((g.OriginLat - lat) / g.PixelHeight))
	if col < 0 || row < 0 || col >= g.Width || row >= g.Height {
		return 0, 0, false
	}
	return col, row, true
}

// Center returns the lon/lat of the center of a pixel.
func (g Grid) Center(col, row int) (lon, lat float64) {
	lon = g.OriginLon + (float64(col)+0.5)*g.PixelWidth
	lat = g.OriginLat - (float64(row)+0.5)*g.PixelHeight
	return lon, lat
}

// Equal reports whether two grids describe the same pixels.
func (g Grid) Equal(o Grid) bool {
	const eps = 1e-9
	return g.Width == o.Width && g.Height == o.Height &&
		math.Abs(g.OriginLon-o.OriginLon) < eps &&
		math.Abs(g.OriginLat-o.OriginLat) < eps &&
		math.Abs(g.PixelWidth-o.PixelWidth) < eps &&
		math.Abs(g.PixelHeight-o.PixelHeight) < eps
}

// Bounds is an axis-aligned lon/lat rectangle.
type Bounds struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Intersects reports whether two rectangles overlap.
func (b Bounds) Intersects(o Bounds) bool {
	return b.MinLon <= o.MaxLon && o.MinLon <= b.MaxLon &&
		b.MinLat <= o.MaxLat && o.MinLat <= b.MaxLat
}

// Contains reports whether lon/lat lies inside the rectangle.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// Pad grows the rectangle by a fraction of its size on every side.
func (b Bounds) Pad(frac float64) Bounds {
	dx := (b.MaxLon - b.MinLon) * frac
	dy := (b.MaxLat - b.MinLat) * frac
	return Bounds{
		MinLon: b.MinLon - dx,
		MinLat: b.MinLat - dy,
		MaxLon: b.MaxLon + dx,
		MaxLat: b.MaxLat + dy,
	}
}

// Region is a geometry that images can be clipped to and reduced over.
type Region interface {
	Contains(lon, lat float64) bool
	Bounds() Bounds
}

// PointRegion is a Region that is a single location. Reductions over a point
// read the pixel containing it.
type PointRegion interface {
	Region
	Location() (lon, lat float64)
}

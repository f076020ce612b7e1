// Package region holds the fixed locations and boundaries an analysis runs
// over, backed by go-geom geometries.
package region

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/i474232898/groundwater-monitoring/internal/raster"
)

var (
	// ErrBoundaryNotFound is returned when no feature matches the requested name.
	ErrBoundaryNotFound = errors.New("boundary not found")
)

// Point is a named location.
type Point struct {
	Name string  `json:"name"`
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
}

// Contains reports whether lon/lat is exactly the point.
func (p Point) Contains(lon, lat float64) bool {
	return lon == p.Lon && lat == p.Lat
}

// Bounds returns the degenerate rectangle around the point.
func (p Point) Bounds() raster.Bounds {
	return raster.Bounds{MinLon: p.Lon, MinLat: p.Lat, MaxLon: p.Lon, MaxLat: p.Lat}
}

// Location implements raster.PointRegion.
func (p Point) Location() (float64, float64) {
	return p.Lon, p.Lat
}

// Boundary is a named area made of one or more polygons.
type Boundary struct {
	Name     string
	Geometry *geom.MultiPolygon
	bounds   raster.Bounds
}

// NewBoundary wraps a multipolygon. It must have at least one polygon.
func NewBoundary(name string, mp *geom.MultiPolygon) (*Boundary, error) {
	if mp == nil || mp.NumPolygons() == 0 {
		return nil, fmt.Errorf("boundary %q: %w", name, ErrBoundaryNotFound)
	}
	b := mp.Bounds()
	return &Boundary{
		Name:     name,
		Geometry: mp,
		bounds: raster.Bounds{
			MinLon: b.Min(0),
			MinLat: b.Min(1),
			MaxLon: b.Max(0),
			MaxLat: b.Max(1),
		},
	}, nil
}

// Bounds returns the boundary's bounding rectangle.
func (b *Boundary) Bounds() raster.Bounds {
	return b.bounds
}

// Contains reports whether lon/lat lies inside any polygon of the boundary
// and outside that polygon's holes.
func (b *Boundary) Contains(lon, lat float64) bool {
	if !b.bounds.Contains(lon, lat) {
		return false
	}
	for i := 0; i < b.Geometry.NumPolygons(); i++ {
		if polygonContains(b.Geometry.Polygon(i), lon, lat) {
			return true
		}
	}
	return false
}

// Rings returns every ring of the boundary as lon/lat pairs, outer rings and
// holes alike.
func (b *Boundary) Rings() [][][2]float64 {
	var rings [][][2]float64
	for i := 0; i < b.Geometry.NumPolygons(); i++ {
		p := b.Geometry.Polygon(i)
		for j := 0; j < p.NumLinearRings(); j++ {
			lr := p.LinearRing(j)
			flat, stride := lr.FlatCoords(), lr.Stride()
			ring := make([][2]float64, 0, len(flat)/stride)
			for k := 0; k+1 < len(flat); k += stride {
				ring = append(ring, [2]float64{flat[k], flat[k+1]})
			}
			rings = append(rings, ring)
		}
	}
	return rings
}

func polygonContains(p *geom.Polygon, lon, lat float64) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	c := geom.Coord{lon, lat}
	if !xy.IsPointInRing(p.Layout(), c, p.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if xy.IsPointInRing(p.Layout(), c, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

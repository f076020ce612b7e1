package raster

import (
	"fmt"
	"math"
	"time"
)

// Band is a single-band grid of values. Masked pixels hold NaN.
type Band struct {
	Name   string
	Grid   Grid
	Values []float64
}

// NewBand allocates a fully masked band.
func NewBand(name string, grid Grid) *Band {
	values := make([]float64, grid.Size())
	for i := range values {
		values[i] = math.NaN()
	}
	return &Band{Name: name, Grid: grid, Values: values}
}

// At returns the value of a pixel; ok is false when it is masked or outside.
func (b *Band) At(col, row int) (float64, bool) {
	if col < 0 || row < 0 || col >= b.Grid.Width || row >= b.Grid.Height {
		return 0, false
	}
	v := b.Values[row*b.Grid.Width+col]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Sample returns the value of the pixel containing lon/lat.
func (b *Band) Sample(lon, lat float64) (float64, bool) {
	col, row, ok := b.Grid.Cell(lon, lat)
	if !ok {
		return 0, false
	}
	return b.At(col, row)
}

// ValidCount returns the number of unmasked pixels.
func (b *Band) ValidCount() int {
	n := 0
	for _, v := range b.Values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

func (b *Band) clone(name string) *Band {
	values := make([]float64, len(b.Values))
	copy(values, b.Values)
	return &Band{Name: name, Grid: b.Grid, Values: values}
}

// Image is a set of bands sharing a grid plus the tags attached to it.
type Image struct {
	ID         string
	Start      time.Time
	End        time.Time
	Index      string
	Bands      []*Band
	Properties map[string]interface{}
}

// BandNames lists the image's bands in order.
func (img *Image) BandNames() []string {
	names := make([]string, 0, len(img.Bands))
	for _, b := range img.Bands {
		names = append(names, b.Name)
	}
	return names
}

// Band returns the named band or nil.
func (img *Image) Band(name string) *Band {
	for _, b := range img.Bands {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// First returns the first band or nil when the image has none.
func (img *Image) First() *Band {
	if len(img.Bands) == 0 {
		return nil
	}
	return img.Bands[0]
}

// Select returns a copy of the image restricted to the named bands. Missing
// names are skipped.
func (img *Image) Select(names ...string) *Image {
	out := img.withBands(nil)
	for _, name := range names {
		if b := img.Band(name); b != nil {
			out.Bands = append(out.Bands, b)
		}
	}
	return out
}

// Rename returns a copy of a single-band image with the band renamed. Images
// with no bands are returned as an empty copy.
func (img *Image) Rename(name string) (*Image, error) {
	if len(img.Bands) > 1 {
		return nil, fmt.Errorf("rename %s: expected one band, got %d", img.ID, len(img.Bands))
	}
	out := img.withBands(nil)
	if len(img.Bands) == 1 {
		renamed := *img.Bands[0]
		renamed.Name = name
		out.Bands = []*Band{&renamed}
	}
	return out, nil
}

// Set returns a copy of the image with a property attached.
func (img *Image) Set(key string, value interface{}) *Image {
	out := img.withBands(img.Bands)
	out.Properties[key] = value
	return out
}

// Lt returns an image whose bands are 1 where the value is below threshold
// and 0 where it is not. Masked pixels stay masked.
func (img *Image) Lt(threshold float64) *Image {
	return img.mapValues(func(v float64) float64 {
		if v < threshold {
			return 1
		}
		return 0
	})
}

// SelfMask masks every pixel whose value is zero.
func (img *Image) SelfMask() *Image {
	return img.mapValues(func(v float64) float64 {
		if v == 0 {
			return math.NaN()
		}
		return v
	})
}

// Clip masks every pixel whose center lies outside region.
func (img *Image) Clip(region Region) *Image {
	out := img.withBands(nil)
	rb := region.Bounds()
	for _, b := range img.Bands {
		clipped := b.clone(b.Name)
		for row := 0; row < b.Grid.Height; row++ {
			for col := 0; col < b.Grid.Width; col++ {
				lon, lat := b.Grid.Center(col, row)
				if !rb.Contains(lon, lat) || !region.Contains(lon, lat) {
					clipped.Values[row*b.Grid.Width+col] = math.NaN()
				}
			}
		}
		out.Bands = append(out.Bands, clipped)
	}
	return out
}

func (img *Image) mapValues(fn func(float64) float64) *Image {
	out := img.withBands(nil)
	for _, b := range img.Bands {
		mapped := b.clone(b.Name)
		for i, v := range mapped.Values {
			if math.IsNaN(v) {
				continue
			}
			mapped.Values[i] = fn(v)
		}
		out.Bands = append(out.Bands, mapped)
	}
	return out
}

func (img *Image) withBands(bands []*Band) *Image {
	props := make(map[string]interface{}, len(img.Properties)+1)
	for k, v := range img.Properties {
		props[k] = v
	}
	out := &Image{
		ID:         img.ID,
		Start:      img.Start,
		End:        img.End,
		Index:      img.Index,
		Properties: props,
	}
	if bands != nil {
		out.Bands = append([]*Band(nil), bands...)
	}
	return out
}

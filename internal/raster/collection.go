package raster

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Collection is an ordered list of images.
type Collection []*Image

// FilterDate keeps the images whose start lies in [start, end).
func (c Collection) FilterDate(start, end time.Time) Collection {
	var out Collection
	for _, img := range c {
		if !img.Start.Before(start) && img.Start.Before(end) {
			out = append(out, img)
		}
	}
	return out
}

// FilterGT keeps the images whose numeric property is greater than value.
// Images without the property are dropped.
func (c Collection) FilterGT(property string, value float64) Collection {
	var out Collection
	for _, img := range c {
		v, ok := toFloat(img.Properties[property])
		if ok && v > value {
			out = append(out, img)
		}
	}
	return out
}

// SortByStart returns a copy sorted by start time.
func (c Collection) SortByStart(ascending bool) Collection {
	out := append(Collection(nil), c...)
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].Start.After(out[j].Start)
	})
	return out
}

// Latest returns the image with the greatest start, or nil.
func (c Collection) Latest() *Image {
	if len(c) == 0 {
		return nil
	}
	return c.SortByStart(false)[0]
}

// Mean computes the per-pixel mean of every band name present in the
// collection, ignoring masked pixels. A band with no valid pixel in the result
// is dropped, so an empty collection yields an image with no bands.
func (c Collection) Mean() (*Image, error) {
	out := &Image{Properties: map[string]interface{}{}}

	var order []string
	sums := map[string][]float64{}
	counts := map[string][]int{}
	grids := map[string]Grid{}

	for _, img := range c {
		for _, b := range img.Bands {
			grid, seen := grids[b.Name]
			if !seen {
				grids[b.Name] = b.Grid
				sums[b.Name] = make([]float64, b.Grid.Size())
				counts[b.Name] = make([]int, b.Grid.Size())
				order = append(order, b.Name)
			} else if !grid.Equal(b.Grid) {
				return nil, fmt.Errorf("mean of band %s in %s: %w", b.Name, img.ID, ErrGridMismatch)
			}

			s, n := sums[b.Name], counts[b.Name]
			for i, v := range b.Values {
				if math.IsNaN(v) {
					continue
				}
				s[i] += v
				n[i]++
			}
		}
	}

	for _, name := range order {
		band := NewBand(name, grids[name])
		valid := 0
		for i, n := range counts[name] {
			if n == 0 {
				continue
			}
			band.Values[i] = sums[name][i] / float64(n)
			valid++
		}
		if valid > 0 {
			out.Bands = append(out.Bands, band)
		}
	}

	return out, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

package raster

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyRegion is returned when a reduction finds no valid pixel.
	ErrEmptyRegion = errors.New("no valid pixels in region")
	// ErrTooManyPixels is returned when a reduction would sample more than
	// MaxPixels and best effort is off.
	ErrTooManyPixels = errors.New("too many pixels in region")
)

// Reducer names a spatial aggregation.
type Reducer string

const (
	ReducerMinMax Reducer = "minMax"
	ReducerMean   Reducer = "mean"
	ReducerFirst  Reducer = "first"
)

// DefaultMaxPixels bounds the number of samples a reduction may take.
const DefaultMaxPixels = 10_000_000

// metresPerDegree is the length of one degree of arc on the WGS84 equator.
const metresPerDegree = 2 * math.Pi * 6378137 / 360

// ReduceOptions controls ReduceRegion.
type ReduceOptions struct {
	Reducer Reducer
	// Band restricts the reduction to one band; empty means every band.
	Band string
	// Scale is the sampling resolution in metres. Zero samples every native
	// pixel.
	Scale float64
	// BestEffort coarsens the scale instead of failing when the sample count
	// exceeds MaxPixels.
	BestEffort bool
	MaxPixels  int
}

// Stats holds reduction results keyed the way the reducers name them:
// "<band>_min", "<band>_max", "<band>_mean", or "<band>" for ReducerFirst.
type Stats map[string]float64

// ReduceRegion aggregates the pixels of img that fall inside region.
func ReduceRegion(img *Image, region Region, opts ReduceOptions) (Stats, error) {
	if img == nil {
		return nil, fmt.Errorf("reduce region: nil image")
	}
	bands := img.Bands
	if opts.Band != "" {
		b := img.Band(opts.Band)
		if b == nil {
			return nil, fmt.Errorf("reduce region: band %q not in image %s", opts.Band, img.ID)
		}
		bands = []*Band{b}
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("reduce region %s: %w", img.ID, ErrEmptyRegion)
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}

	stats := Stats{}
	for _, b := range bands {
		positions, err := samplePositions(b.Grid, region, opts)
		if err != nil {
			return nil, fmt.Errorf("reduce region %s: %w", img.ID, err)
		}
		if err := reduceBand(stats, b, positions, opts.Reducer); err != nil {
			return nil, fmt.Errorf("reduce region %s band %s: %w", img.ID, b.Name, err)
		}
	}
	return stats, nil
}

func reduceBand(stats Stats, b *Band, positions [][2]float64, reducer Reducer) error {
	var n int
	var sum, first float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range positions {
		v, ok := b.Sample(p[0], p[1])
		if !ok {
			continue
		}
		if n == 0 {
			first = v
		}
		n++
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if n == 0 {
		return ErrEmptyRegion
	}

	switch reducer {
	case ReducerMinMax:
		stats[b.Name+"_min"] = lo
		stats[b.Name+"_max"] = hi
	case ReducerMean:
		stats[b.Name+"_mean"] = sum / float64(n)
	case ReducerFirst:
		stats[b.Name] = first
	default:
		return fmt.Errorf("unknown reducer %q", reducer)
	}
	return nil
}

// samplePositions lays a lattice of sample centers over the region's bounds
// and keeps the ones inside the region.
func samplePositions(grid Grid, region Region, opts ReduceOptions) ([][2]float64, error) {
	if pr, ok := region.(PointRegion); ok {
		lon, lat := pr.Location()
		return [][2]float64{{lon, lat}}, nil
	}

	b := region.Bounds()
	dLon, dLat := grid.PixelWidth, grid.PixelHeight
	if opts.Scale > 0 {
		dLon, dLat = degreesForScale(opts.Scale, (b.MinLat+b.MaxLat)/2)
	}
	if dLon <= 0 || dLat <= 0 {
		return nil, fmt.Errorf("invalid sampling step %gx%g", dLon, dLat)
	}

	nx, ny := latticeSize(b, dLon, dLat)
	for nx*ny > opts.MaxPixels {
		if !opts.BestEffort {
			return nil, fmt.Errorf("%d samples over limit %d: %w", nx*ny, opts.MaxPixels, ErrTooManyPixels)
		}
		factor := math.Sqrt(float64(nx*ny)/float64(opts.MaxPixels)) * 1.01
		dLon *= factor
		dLat *= factor
		nx, ny = latticeSize(b, dLon, dLat)
	}

	positions := make([][2]float64, 0, nx*ny)
	for j := 0; j < ny; j++ {
		lat := b.MaxLat - (float64(j)+0.5)*dLat
		for i := 0; i < nx; i++ {
			lon := b.MinLon + (float64(i)+0.5)*dLon
			if region.Contains(lon, lat) {
				positions = append(positions, [2]float64{lon, lat})
			}
		}
	}
	return positions, nil
}

func degreesForScale(scale, lat float64) (dLon, dLat float64) {
	dLat = scale / metresPerDegree
	cos := math.Cos(lat * math.Pi / 180)
	if cos < 1e-6 {
		cos = 1e-6
	}
	dLon = scale / (metresPerDegree * cos)
	return dLon, dLat
}

func latticeSize(b Bounds, dLon, dLat float64) (nx, ny int) {
	nx = int(math.Ceil((b.MaxLon - b.MinLon) / dLon))
	ny = int(math.Ceil((b.MaxLat - b.MinLat) / dLat))
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	return nx, ny
}

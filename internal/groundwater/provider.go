package groundwater

import (
	"context"
	"time"

	"github.com/i474232898/groundwater-monitoring/internal/raster"
	"github.com/i474232898/groundwater-monitoring/internal/region"
)

// Query selects source images: a single band of a collection whose start
// lies in [Start, End) and whose grid intersects Bounds.
type Query struct {
	Collection string
	Band       string
	Start      time.Time
	End        time.Time
	Bounds     raster.Bounds
}

// ImageSource abstracts a dataset catalogue (remote API, local file, cache).
type ImageSource interface {
	Name() string
	Images(ctx context.Context, q Query) (raster.Collection, error)
}

// BoundarySource loads the boundary whose property field equals value.
type BoundarySource interface {
	Boundary(ctx context.Context, field, value string) (*region.Boundary, error)
}

// Store is the contract the in-memory report store must satisfy.
type Store interface {
	SaveReport(report Report)
	GetLatest(regionName string) (Report, error)
	GetRange(regionName string, from, to time.Time) ([]Report, error)
}

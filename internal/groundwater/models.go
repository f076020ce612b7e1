package groundwater

import (
	"time"

	"github.com/i474232898/groundwater-monitoring/internal/raster"
	"github.com/i474232898/groundwater-monitoring/internal/region"
)

const (
	// Collection is the GLDAS catchment land surface model daily product.
	Collection = "NASA/GLDAS/V022/CLSM/G025/DA1D"
	// SourceBand is the groundwater storage band of Collection.
	SourceBand = "GWS_tavg"
	// Band is the name given to the monthly averaged band.
	Band = "Groundwater"
	// PropNumBands tags each monthly image with how many bands its mean kept.
	PropNumBands = "num_bands"
)

// Site is a fixed point of interest with the color it is drawn in.
type Site struct {
	region.Point
	Color string `json:"color"`
}

// Window is a half-open date range [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Analysis holds the fixed parameters of a run.
type Analysis struct {
	Region        string
	BoundaryField string
	Window        Window
	Sites         []Site

	// Scale is the reduction sampling distance in metres.
	Scale            float64
	BestEffort       bool
	DroughtThreshold float64
}

// DefaultAnalysis is the Sri Lanka 2013-2023 run.
func DefaultAnalysis() Analysis {
	return Analysis{
		Region:        "Sri Lanka",
		BoundaryField: "country_na",
		Window: Window{
			Start: time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Sites: []Site{
			{Point: region.Point{Name: "Anuradhapura", Lon: 80.3880, Lat: 8.3114}, Color: "red"},
			{Point: region.Point{Name: "Colombo", Lon: 79.8612, Lat: 6.9271}, Color: "blue"},
		},
		Scale:            27000,
		BestEffort:       true,
		DroughtThreshold: 1000,
	}
}

// MonthSummary describes one monthly composite.
type MonthSummary struct {
	Index       string    `json:"index"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Images      int       `json:"images"`
	NumBands    int       `json:"numBands"`
	ValidPixels int       `json:"validPixels"`
}

// SeriesPoint is one value of a time series keyed by month start.
type SeriesPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is a named time series.
type Series struct {
	Name   string        `json:"name"`
	Points []SeriesPoint `json:"points"`
}

// Report is the outcome of one analysis run.
type Report struct {
	ID            string         `json:"id"`
	GeneratedAt   time.Time      `json:"generatedAt"` // always UTC
	Region        string         `json:"region"`
	Window        Window         `json:"window"`
	SourceImages  int            `json:"sourceImages"`
	Months        []MonthSummary `json:"months"`
	LatestMonth   string         `json:"latestMonth"`
	MeanStats     raster.Stats   `json:"meanStats"`
	LatestStats   raster.Stats   `json:"latestStats"`
	DroughtPixels int            `json:"droughtPixels"`
	National      Series         `json:"national"`
	Points        []Series       `json:"points"`
	Sites         []Site         `json:"sites"`

	// Rendering inputs.
	Mean     *raster.Image    `json:"-"`
	Latest   *raster.Image    `json:"-"`
	Drought  *raster.Image    `json:"-"`
	Boundary *region.Boundary `json:"-"`
}

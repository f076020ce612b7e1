package groundwater

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"time"

	"github.com/i474232898/groundwater-monitoring/internal/render"
)

var (
	// ErrUnknownLayer is returned for a map layer name that does not exist.
	ErrUnknownLayer = errors.New("unknown map layer")
	// ErrUnknownChart is returned for a chart name that does not exist.
	ErrUnknownChart = errors.New("unknown chart")
)

// Map layer and chart names.
const (
	LayerMean    = "mean"
	LayerLatest  = "latest"
	LayerDrought = "drought"

	ChartNational = "national"
	ChartPoints   = "points"
)

var (
	// Layers lists the map layers in drawing order.
	Layers = []string{LayerMean, LayerLatest, LayerDrought}
	// Charts lists the time series charts.
	Charts = []string{ChartNational, ChartPoints}
)

const (
	mapWidth      = 800
	mapMargin     = 0.1
	boundaryColor = "green"
	axisTime      = "Time"
	axisStorage   = "Groundwater Storage (mm)"
)

var storagePalette = []string{"darkred", "orange", "white", "lightblue", "blue"}

// storageVis is shared by the mean and latest layers. The legend bounds below
// are separate hand-tuned values and do not follow from it.
var storageVis = render.VisParams{Min: 400, Max: 2100, Palette: storagePalette}

type layerStyle struct {
	name   string
	title  string
	vis    render.VisParams
	legend render.Legend
}

var layerStyles = map[string]layerStyle{
	LayerMean: {
		name:   "Mean Groundwater Storage (2013–2023)",
		title:  "Mean Groundwater Storage in Sri Lanka (2013–2023)",
		vis:    storageVis,
		legend: render.Legend{Title: "Mean Groundwater Storage (mm)", Palette: storagePalette, Min: 436, Max: 1940},
	},
	LayerLatest: {
		name:   "Groundwater Storage - Latest Month",
		title:  "Latest Groundwater Storage in Sri Lanka (as of December 2023)",
		vis:    storageVis,
		legend: render.Legend{Title: "Latest Groundwater Storage (mm)", Palette: storagePalette, Min: 574, Max: 2092},
	},
	LayerDrought: {
		name:   "Drought Risk Areas (<1000 mm)",
		title:  "Drought Risk Areas in Sri Lanka (Groundwater < 1000 mm)",
		vis:    render.VisParams{Min: 0, Max: 1, Palette: []string{"red"}},
		legend: render.Legend{Title: "Drought Risk Areas (<1000 mm)", Palette: []string{"red"}, Min: 0, Max: 1},
	},
}

// MapSpec builds the map of one layer of a report, with the boundary outline
// and the sites on top.
func MapSpec(r Report, layer string) (render.MapSpec, error) {
	style, ok := layerStyles[layer]
	if !ok {
		return render.MapSpec{}, fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
	}
	if r.Boundary == nil {
		return render.MapSpec{}, fmt.Errorf("report %s has no boundary", r.ID)
	}

	img := r.Mean
	switch layer {
	case LayerLatest:
		img = r.Latest
	case LayerDrought:
		img = r.Drought
	}

	outline, err := render.ParseColor(boundaryColor)
	if err != nil {
		return render.MapSpec{}, err
	}
	markers := make([]render.Marker, 0, len(r.Sites))
	for _, site := range r.Sites {
		c, err := render.ParseColor(site.Color)
		if err != nil {
			return render.MapSpec{}, fmt.Errorf("site %s: %w", site.Name, err)
		}
		markers = append(markers, render.Marker{Name: site.Name, Lon: site.Lon, Lat: site.Lat, Color: c})
	}

	return render.MapSpec{
		Title:    style.title,
		Viewport: r.Boundary.Bounds().Pad(mapMargin),
		Width:    mapWidth,
		Layers:   []render.Layer{{Name: style.name, Image: img, Vis: style.vis}},
		Outlines: []render.Outline{{Rings: r.Boundary.Rings(), Color: outline}},
		Markers:  markers,
		Legends:  []render.Legend{style.legend},
	}, nil
}

// ChartSpec builds one of the time series charts of a report.
func ChartSpec(r Report, name string) (render.ChartSpec, error) {
	switch name {
	case ChartNational:
		c, err := render.ParseColor("green")
		if err != nil {
			return render.ChartSpec{}, err
		}
		return render.ChartSpec{
			Title:  "Mean Groundwater Storage (Sri Lanka)",
			XAxis:  axisTime,
			YAxis:  axisStorage,
			Series: []render.ChartSeries{chartSeries(r.National, c)},
		}, nil
	case ChartPoints:
		series := make([]render.ChartSeries, 0, len(r.Points))
		for i, s := range r.Points {
			var c color.RGBA
			if i < len(r.Sites) {
				parsed, err := render.ParseColor(r.Sites[i].Color)
				if err != nil {
					return render.ChartSpec{}, err
				}
				c = parsed
			}
			series = append(series, chartSeries(s, c))
		}
		return render.ChartSpec{
			Title:  "Groundwater Storage at Selected Points",
			XAxis:  axisTime,
			YAxis:  axisStorage,
			Series: series,
		}, nil
	default:
		return render.ChartSpec{}, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
}

func chartSeries(s Series, c color.RGBA) render.ChartSeries {
	out := render.ChartSeries{
		Name:   s.Name,
		Times:  make([]time.Time, 0, len(s.Points)),
		Values: make([]float64, 0, len(s.Points)),
		Color:  c,
	}
	for _, p := range s.Points {
		out.Times = append(out.Times, p.Time)
		out.Values = append(out.Values, p.Value)
	}
	return out
}

// WriteMap renders a map layer of r as PNG.
func WriteMap(w io.Writer, r Report, layer string) error {
	spec, err := MapSpec(r, layer)
	if err != nil {
		return err
	}
	img, err := render.RenderMap(spec)
	if err != nil {
		return fmt.Errorf("render %s map: %w", layer, err)
	}
	return render.EncodePNG(w, img)
}

// WriteChart renders a chart of r as PNG.
func WriteChart(w io.Writer, r Report, name string) error {
	spec, err := ChartSpec(r, name)
	if err != nil {
		return err
	}
	return render.RenderChart(w, spec)
}

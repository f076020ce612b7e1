package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	// ErrNotEnoughData is returned when no series has at least two points.
	ErrNotEnoughData = errors.New("not enough data to draw a chart")
)

// ChartSeries is one named line of a time series chart.
type ChartSeries struct {
	Name   string
	Times  []time.Time
	Values []float64
	Color  color.RGBA
}

// ChartSpec describes a time series chart.
type ChartSpec struct {
	Title  string
	XAxis  string
	YAxis  string
	Series []ChartSeries
	Width  int
	Height int
}

const (
	defaultChartWidth  = 1024
	defaultChartHeight = 480
	chartTimeFormat    = "2006-01"
)

func lineStyle(c color.RGBA) chart.Style {
	col := drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
	return chart.Style{
		StrokeWidth: 2,
		StrokeColor: col,
		DotWidth:    3,
		DotColor:    col,
	}
}

// RenderChart draws spec as PNG. Series with fewer than two points are left out.
func RenderChart(w io.Writer, spec ChartSpec) error {
	var series []chart.Series
	for _, s := range spec.Series {
		if len(s.Times) != len(s.Values) {
			return fmt.Errorf("series %q: %d times and %d values", s.Name, len(s.Times), len(s.Values))
		}
		if len(s.Times) < 2 {
			continue
		}
		series = append(series, chart.TimeSeries{
			Name:    s.Name,
			XValues: s.Times,
			YValues: s.Values,
			Style:   lineStyle(s.Color),
		})
	}
	if len(series) == 0 {
		return ErrNotEnoughData
	}

	width, height := spec.Width, spec.Height
	if width <= 0 {
		width = defaultChartWidth
	}
	if height <= 0 {
		height = defaultChartHeight
	}

	ch := chart.Chart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           spec.XAxis,
			ValueFormatter: chart.TimeValueFormatterWithFormat(chartTimeFormat),
		},
		YAxis:  chart.YAxis{Name: spec.YAxis},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart %q: %w", spec.Title, err)
	}
	return nil
}

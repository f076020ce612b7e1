package render

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/groundwater-monitoring/internal/raster"
)

func TestParseColor(t *testing.T) {
	c, err := ParseColor("darkred")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{139, 0, 0, 255}, c)

	c, err = ParseColor("LightBlue")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{173, 216, 230, 255}, c)

	c, err = ParseColor("#00ff80")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 255, 128, 255}, c)

	_, err = ParseColor("mauve")
	assert.Error(t, err)
}

func TestPalette_At(t *testing.T) {
	p, err := NewPalette("black", "white")
	require.NoError(t, err)

	assert.Equal(t, color.RGBA{0, 0, 0, 255}, p.At(0, 0, 10))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, p.At(10, 0, 10))
	assert.Equal(t, color.RGBA{128, 128, 128, 255}, p.At(5, 0, 10))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, p.At(-5, 0, 10), "clamped below")
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, p.At(50, 0, 10), "clamped above")
}

func TestLegend_Labels(t *testing.T) {
	l := Legend{Title: "Groundwater Storage (mm)", Palette: []string{"darkred", "blue"}, Min: 436, Max: 1940}
	lo, hi := l.Labels()
	assert.Equal(t, "436.0", lo)
	assert.Equal(t, "1940.0", hi)
	assert.Equal(t, "0.1", FormatLabel(0.05))
}

func TestLegend_SwatchRunsMinToMax(t *testing.T) {
	l := Legend{Palette: []string{"darkred", "orange", "white", "lightblue", "blue"}, Min: 0, Max: 1}
	img, err := l.Swatch(100, 10)
	require.NoError(t, err)

	left := img.RGBAAt(0, 5)
	right := img.RGBAAt(99, 5)
	assert.Greater(t, left.R, left.B, "left end is red")
	assert.Greater(t, right.B, right.R, "right end is blue")

	_, err = Legend{Palette: []string{"nope"}}.Swatch(10, 10)
	assert.Error(t, err)
}

func testLayer(value float64) *raster.Image {
	g := raster.Grid{OriginLon: 0, OriginLat: 10, PixelWidth: 5, PixelHeight: 5, Width: 2, Height: 2}
	b := raster.NewBand("Groundwater", g)
	b.Values[0] = value
	b.Values[3] = value
	return &raster.Image{Bands: []*raster.Band{b}}
}

func TestRenderMap_LayerAndMask(t *testing.T) {
	img, err := RenderMap(MapSpec{
		Viewport: raster.Bounds{MinLon: 0, MinLat: 0, MaxLon: 10, MaxLat: 10},
		Width:    100,
		Layers: []Layer{{
			Name:  "mask",
			Image: testLayer(1),
			Vis:   VisParams{Min: 0, Max: 1, Palette: []string{"red"}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dy())

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(25, 25), "top-left pixel set")
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(75, 25), "masked pixel shows background")
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(75, 75))
}

func TestRenderMap_OutlineMarkerTitle(t *testing.T) {
	black := color.RGBA{0, 0, 0, 255}
	green := color.RGBA{0, 128, 0, 255}
	img, err := RenderMap(MapSpec{
		Title:    "Drought",
		Viewport: raster.Bounds{MinLon: 0, MinLat: 0, MaxLon: 10, MaxLat: 5},
		Width:    200,
		Outlines: []Outline{{
			Rings: [][][2]float64{{{1, 1}, {9, 1}, {9, 4}, {1, 4}, {1, 1}}},
			Color: black,
		}},
		Markers: []Marker{{Lon: 5, Lat: 2.5, Color: green}},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dy())

	assertNear(t, black, img.RGBAAt(100, 80), "bottom edge of outline")
	assertNear(t, green, img.RGBAAt(100, 50), "marker center")
	assertNear(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(100, 65), "inside the outline")
}

// assertNear allows for antialiasing at shape edges.
func assertNear(t *testing.T, want, got color.RGBA, msg string) {
	t.Helper()
	for i, pair := range [][2]uint8{{want.R, got.R}, {want.G, got.G}, {want.B, got.B}} {
		assert.InDelta(t, float64(pair[0]), float64(pair[1]), 16, "%s: channel %d of %v", msg, i, got)
	}
}

func TestTypeface_CoversTitles(t *testing.T) {
	tf, err := newTypeface()
	require.NoError(t, err)
	defer tf.Close()

	for _, title := range []string{
		"Mean Groundwater Storage in Sri Lanka (2013–2023)",
		"Mean Groundwater Storage (2013–2023)",
		"Drought Risk Areas in Sri Lanka (Groundwater < 1000 mm)",
	} {
		assert.NoError(t, tf.check(title), title)
	}
	assert.ErrorIs(t, tf.check("雨"), ErrMissingGlyph)
}

func TestRenderMap_MissingGlyph(t *testing.T) {
	_, err := RenderMap(MapSpec{
		Title:    "雨",
		Viewport: raster.Bounds{MinLon: 0, MinLat: 0, MaxLon: 10, MaxLat: 10},
		Width:    100,
	})
	assert.ErrorIs(t, err, ErrMissingGlyph)
}

func TestRenderMap_LegendBottomLeft(t *testing.T) {
	img, err := RenderMap(MapSpec{
		Viewport: raster.Bounds{MinLon: 0, MinLat: 0, MaxLon: 10, MaxLat: 10},
		Width:    400,
		Legends:  []Legend{{Title: "Drought", Palette: []string{"red"}, Min: 0, Max: 1}},
	})
	require.NoError(t, err)

	// panel is 70px high, 10px above the bottom edge; the bar starts 25px into it
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(50, 355))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(300, 355))
}

func TestRenderMap_EmptyViewport(t *testing.T) {
	_, err := RenderMap(MapSpec{Width: 100})
	assert.ErrorIs(t, err, ErrEmptyViewport)
}

func TestRenderMap_BadPalette(t *testing.T) {
	_, err := RenderMap(MapSpec{
		Viewport: raster.Bounds{MinLon: 0, MinLat: 0, MaxLon: 10, MaxLat: 10},
		Width:    10,
		Layers:   []Layer{{Name: "l", Image: testLayer(1), Vis: VisParams{Palette: []string{"nope"}}}},
	})
	assert.Error(t, err)
}

func TestRenderChart(t *testing.T) {
	start := time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)
	var times []time.Time
	var values []float64
	for i := 0; i < 12; i++ {
		times = append(times, start.AddDate(0, i, 0))
		values = append(values, 1000+100*math.Sin(float64(i)))
	}

	var buf bytes.Buffer
	err := RenderChart(&buf, ChartSpec{
		Title:  "Groundwater",
		XAxis:  "Date",
		YAxis:  "mm",
		Width:  400,
		Height: 300,
		Series: []ChartSeries{
			{Name: "national", Times: times, Values: values, Color: color.RGBA{0, 0, 255, 255}},
			{Name: "single", Times: times[:1], Values: values[:1]},
		},
	})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestRenderChart_NotEnoughData(t *testing.T) {
	var buf bytes.Buffer
	err := RenderChart(&buf, ChartSpec{Series: []ChartSeries{{Name: "one", Times: []time.Time{time.Now()}, Values: []float64{1}}}})
	assert.ErrorIs(t, err, ErrNotEnoughData)

	err = RenderChart(&buf, ChartSpec{Series: []ChartSeries{{Name: "bad", Times: []time.Time{time.Now()}}}})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotEnoughData)
}

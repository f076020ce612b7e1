package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"

	"github.com/i474232898/groundwater-monitoring/internal/raster"
)

var (
	// ErrEmptyViewport is returned when a map has no area to draw.
	ErrEmptyViewport = errors.New("empty map viewport")
)

// VisParams maps band values onto a palette.
type VisParams struct {
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Palette []string `json:"palette"`
}

// Layer is a single-band image drawn with its visualization parameters.
// Masked pixels stay transparent.
type Layer struct {
	Name  string
	Image *raster.Image
	Vis   VisParams
}

// Outline is a set of closed lon/lat rings drawn as lines.
type Outline struct {
	Rings [][][2]float64
	Color color.RGBA
}

// Marker is a labelled location.
type Marker struct {
	Name  string
	Lon   float64
	Lat   float64
	Color color.RGBA
}

// MapSpec describes one map image.
type MapSpec struct {
	Title      string
	Viewport   raster.Bounds
	Width      int
	Background color.RGBA
	Layers     []Layer
	Outlines   []Outline
	Markers    []Marker
	Legends    []Legend
}

const (
	panelMargin  = 10
	panelPadX    = 10
	panelPadY    = 6
	markerSize   = 7
	outlineWidth = 2
)

var titleBackground = color.NRGBA{255, 255, 255, 204}

// projection converts lon/lat to pixel coordinates in a plate carree view.
type projection struct {
	view   raster.Bounds
	width  int
	height int
}

func (p projection) xy(lon, lat float64) (float64, float64) {
	x := (lon - p.view.MinLon) / (p.view.MaxLon - p.view.MinLon) * float64(p.width)
	y := (p.view.MaxLat - lat) / (p.view.MaxLat - p.view.MinLat) * float64(p.height)
	return x, y
}

func (p projection) point(lon, lat float64) image.Point {
	x, y := p.xy(lon, lat)
	return image.Pt(int(math.Floor(x)), int(math.Floor(y)))
}

func (p projection) rect(b raster.Bounds) image.Rectangle {
	return image.Rectangle{
		Min: p.point(b.MinLon, b.MaxLat),
		Max: p.point(b.MaxLon, b.MinLat),
	}
}

// RenderMap draws layers bottom to top, then outlines, markers, the title
// panel and legends.
func RenderMap(spec MapSpec) (*image.RGBA, error) {
	lonSpan := spec.Viewport.MaxLon - spec.Viewport.MinLon
	latSpan := spec.Viewport.MaxLat - spec.Viewport.MinLat
	if lonSpan <= 0 || latSpan <= 0 || spec.Width <= 0 {
		return nil, ErrEmptyViewport
	}
	height := int(math.Round(float64(spec.Width) * latSpan / lonSpan))
	if height < 1 {
		height = 1
	}
	proj := projection{view: spec.Viewport, width: spec.Width, height: height}

	dst := image.NewRGBA(image.Rect(0, 0, spec.Width, height))
	bg := spec.Background
	if bg == (color.RGBA{}) {
		bg = colornames.White
	}
	fillRect(dst, dst.Bounds(), bg)

	tf, err := newTypeface()
	if err != nil {
		return nil, err
	}
	defer tf.Close()

	for _, l := range spec.Layers {
		if err := drawLayer(dst, proj, l); err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.Name, err)
		}
	}

	gc, err := drawing.NewRasterGraphicContext(dst)
	if err != nil {
		return nil, err
	}
	for _, o := range spec.Outlines {
		strokeRings(gc, proj, o)
	}
	for _, m := range spec.Markers {
		if err := tf.check(m.Name); err != nil {
			return nil, fmt.Errorf("marker: %w", err)
		}
		drawMarker(dst, gc, tf, proj, m)
	}
	if spec.Title != "" {
		if err := tf.check(spec.Title); err != nil {
			return nil, fmt.Errorf("title: %w", err)
		}
		drawTitle(dst, tf, spec.Title)
	}

	y := height - panelMargin
	for i := len(spec.Legends) - 1; i >= 0; i-- {
		l := spec.Legends[i]
		y -= l.size(tf).Y
		if err := l.draw(dst, tf, image.Pt(panelMargin, y)); err != nil {
			return nil, fmt.Errorf("legend %q: %w", l.Title, err)
		}
		y -= panelMargin
	}
	return dst, nil
}

func drawLayer(dst *image.RGBA, proj projection, l Layer) error {
	if l.Image == nil {
		return nil
	}
	band := l.Image.First()
	if band == nil {
		return nil
	}
	palette, err := NewPalette(l.Vis.Palette...)
	if err != nil {
		return err
	}

	g := band.Grid
	src := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			v, ok := band.At(col, row)
			if !ok {
				continue
			}
			src.SetRGBA(col, row, palette.At(v, l.Vis.Min, l.Vis.Max))
		}
	}

	r := proj.rect(g.Bounds())
	if r.Empty() {
		return nil
	}
	draw.NearestNeighbor.Scale(dst, r, src, src.Bounds(), draw.Over, nil)
	return nil
}

func strokeRings(gc *drawing.RasterGraphicContext, proj projection, o Outline) {
	gc.SetStrokeColor(o.Color)
	gc.SetLineWidth(outlineWidth)
	for _, ring := range o.Rings {
		if len(ring) < 2 {
			continue
		}
		gc.MoveTo(proj.xy(ring[0][0], ring[0][1]))
		for _, c := range ring[1:] {
			gc.LineTo(proj.xy(c[0], c[1]))
		}
		gc.Stroke()
	}
}

// drawMarker fills a square centered on the marker and writes its name to
// the right.
func drawMarker(dst *image.RGBA, gc *drawing.RasterGraphicContext, tf *typeface, proj projection, m Marker) {
	x, y := proj.xy(m.Lon, m.Lat)
	half := float64(markerSize) / 2
	gc.SetFillColor(m.Color)
	gc.MoveTo(x-half, y-half)
	gc.LineTo(x+half, y-half)
	gc.LineTo(x+half, y+half)
	gc.LineTo(x-half, y+half)
	gc.Close()
	gc.Fill()
	if m.Name != "" {
		tf.draw(dst, int(math.Ceil(x+half))+3, int(y)-tf.height/2, m.Name, textColor, false)
	}
}

func drawTitle(dst *image.RGBA, tf *typeface, title string) {
	w := tf.width(title, true) + 2*panelPadX
	h := tf.height + 2*panelPadY
	x := (dst.Bounds().Dx() - w) / 2
	r := image.Rect(x, panelMargin, x+w, panelMargin+h)
	fillRect(dst, r, titleBackground)
	tf.draw(dst, x+panelPadX, panelMargin+panelPadY, title, textColor, true)
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

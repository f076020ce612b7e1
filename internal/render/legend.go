package render

import (
	"image"
	"image/color"
	"strconv"

	"golang.org/x/image/draw"
)

// Legend describes a color bar with a title and its end values.
type Legend struct {
	Title   string
	Palette []string
	Min     float64
	Max     float64
}

// FormatLabel renders a legend bound with exactly one decimal place.
func FormatLabel(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Labels returns the min and max labels.
func (l Legend) Labels() (string, string) {
	return FormatLabel(l.Min), FormatLabel(l.Max)
}

// Swatch draws the gradient from Min (left) to Max (right).
func (l Legend) Swatch(width, height int) (*image.RGBA, error) {
	p, err := NewPalette(l.Palette...)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		v := l.Min + (l.Max-l.Min)*(float64(x)+0.5)/float64(width)
		c := p.At(v, l.Min, l.Max)
		for y := 0; y < height; y++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

const (
	legendPadX      = 15
	legendPadY      = 8
	swatchWidth     = 100
	swatchHeight    = 10
	swatchMaxHeight = 20
	legendGap       = 4
)

var (
	legendBackground = color.RGBA{255, 255, 255, 255}
	textColor        = color.RGBA{0, 0, 0, 255}
)

// size returns the pixel size of the legend panel.
func (l Legend) size(tf *typeface) image.Point {
	inner := tf.width(l.Title, true)
	if inner < swatchWidth {
		inner = swatchWidth
	}
	h := legendPadY + tf.height + legendGap + swatchMaxHeight + legendGap + tf.height + legendPadY
	return image.Pt(inner+2*legendPadX, h)
}

// draw paints the legend panel with its top-left corner at origin.
func (l Legend) draw(dst draw.Image, tf *typeface, origin image.Point) error {
	if err := tf.check(l.Title); err != nil {
		return err
	}
	sz := l.size(tf)
	fillRect(dst, image.Rectangle{Min: origin, Max: origin.Add(sz)}, legendBackground)

	x := origin.X + legendPadX
	y := origin.Y + legendPadY
	inner := sz.X - 2*legendPadX

	tf.draw(dst, x, y, l.Title, textColor, true)
	y += tf.height + legendGap

	// The swatch is rendered at its nominal size and stretched horizontally.
	swatch, err := l.Swatch(swatchWidth, swatchHeight)
	if err != nil {
		return err
	}
	bar := image.Rect(x, y, x+inner, y+swatchMaxHeight)
	draw.NearestNeighbor.Scale(dst, bar, swatch, swatch.Bounds(), draw.Over, nil)
	y += swatchMaxHeight + legendGap

	minLabel, maxLabel := l.Labels()
	tf.draw(dst, x, y, minLabel, textColor, false)
	tf.draw(dst, x+inner-tf.width(maxLabel, false), y, maxLabel, textColor, false)
	return nil
}

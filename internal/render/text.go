package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	// ErrMissingGlyph is returned when a label uses a rune the map font cannot draw.
	ErrMissingGlyph = errors.New("no glyph in map font")
)

const fontSize = 11

var (
	regularFont, regularErr = opentype.Parse(goregular.TTF)
	boldFont, boldErr       = opentype.Parse(gobold.TTF)
)

// typeface holds the regular and bold faces of one render. Faces keep glyph
// buffers, so a typeface must not be shared between goroutines.
type typeface struct {
	regular font.Face
	bold    font.Face
	ascent  int
	height  int
}

func newTypeface() (*typeface, error) {
	if err := errors.Join(regularErr, boldErr); err != nil {
		return nil, fmt.Errorf("parse go fonts: %w", err)
	}
	opts := &opentype.FaceOptions{Size: fontSize, DPI: 72, Hinting: font.HintingFull}
	regular, err := opentype.NewFace(regularFont, opts)
	if err != nil {
		return nil, err
	}
	bold, err := opentype.NewFace(boldFont, opts)
	if err != nil {
		regular.Close()
		return nil, err
	}
	m := regular.Metrics()
	return &typeface{
		regular: regular,
		bold:    bold,
		ascent:  m.Ascent.Ceil(),
		height:  m.Height.Ceil(),
	}, nil
}

func (t *typeface) Close() error {
	return errors.Join(t.regular.Close(), t.bold.Close())
}

func (t *typeface) face(bold bool) font.Face {
	if bold {
		return t.bold
	}
	return t.regular
}

// check returns ErrMissingGlyph for the first rune of s that either face lacks.
func (t *typeface) check(s string) error {
	for _, r := range s {
		if _, ok := t.regular.GlyphAdvance(r); !ok {
			return fmt.Errorf("%q in %q: %w", r, s, ErrMissingGlyph)
		}
		if _, ok := t.bold.GlyphAdvance(r); !ok {
			return fmt.Errorf("%q in %q: %w", r, s, ErrMissingGlyph)
		}
	}
	return nil
}

func (t *typeface) width(s string, bold bool) int {
	return font.MeasureString(t.face(bold), s).Ceil()
}

// draw writes s with its top-left corner at x, y.
func (t *typeface) draw(dst draw.Image, x, y int, s string, col color.Color, bold bool) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: t.face(bold),
		Dot:  fixed.P(x, y+t.ascent),
	}
	d.DrawString(s)
}

func fillRect(dst draw.Image, r image.Rectangle, col color.Color) {
	draw.Draw(dst, r, image.NewUniform(col), image.Point{}, draw.Over)
}

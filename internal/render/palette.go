// Package render draws analysis layers, legends, title panels and time
// series charts to images.
package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor accepts an SVG 1.1 color name or #rrggbb.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("unknown color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, nil
}

// Palette is an ordered list of colors spread evenly between two values.
type Palette []color.RGBA

// NewPalette parses a list of color names.
func NewPalette(names ...string) (Palette, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("empty palette")
	}
	p := make(Palette, len(names))
	for i, name := range names {
		c, err := ParseColor(name)
		if err != nil {
			return nil, err
		}
		p[i] = c
	}
	return p, nil
}

// At maps v linearly onto the palette, clamping outside [lo, hi].
func (p Palette) At(v, lo, hi float64) color.RGBA {
	if len(p) == 1 || hi <= lo {
		return p[0]
	}
	t := (v - lo) / (hi - lo)
	t = math.Max(0, math.Min(1, t))

	pos := t * float64(len(p)-1)
	i := int(math.Floor(pos))
	if i >= len(p)-1 {
		return p[len(p)-1]
	}
	f := pos - float64(i)
	a, b := p[i], p[i+1]
	return color.RGBA{
		R: lerp(a.R, b.R, f),
		G: lerp(a.G, b.G, f),
		B: lerp(a.B, b.B, f),
		A: 255,
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

package models

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/taigrr/scanline/pkg/render"
)

// ParseColor parses a "#rrggbb" hex color.
func ParseColor(hex string) (render.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return render.Color{}, fmt.Errorf("parse color %q: %w", hex, err)
	}
	return fromColorful(c), nil
}

// Palette returns n opaque colors evenly spaced in hue at constant
// lightness and chroma, so neighbouring faces stay distinguishable.
func Palette(n int) []render.Color {
	out := make([]render.Color, n)
	for i := range out {
		h := 360 * float64(i) / float64(n)
		out[i] = fromColorful(colorful.Hcl(h, 0.5, 0.7).Clamped())
	}
	return out
}

// Blend mixes a and b in CIE L*a*b* space. Alpha is mixed linearly.
func Blend(a, b render.Color, t float64) render.Color {
	ca := colorful.Color{R: a.R, G: a.G, B: a.B}
	cb := colorful.Color{R: b.R, G: b.G, B: b.B}
	c := fromColorful(ca.BlendLab(cb, t).Clamped())
	c.A = a.A + (b.A-a.A)*t
	return c
}

func fromColorful(c colorful.Color) render.Color {
	return render.RGB(c.R, c.G, c.B)
}

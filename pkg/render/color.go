package render

import "image/color"

// Color is an RGBA color with float channels in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Common colors.
var (
	Black = Color{0, 0, 0, 1}
	White = Color{1, 1, 1, 1}
	Red   = Color{1, 0, 0, 1}
	Green = Color{0, 1, 0, 1}
	Blue  = Color{0, 0, 1, 1}
)

// RGB creates an opaque color.
func RGB(r, g, b float64) Color {
	return Color{r, g, b, 1}
}

// RGBA creates a color with explicit alpha.
func RGBA(r, g, b, a float64) Color {
	return Color{r, g, b, a}
}

// Pack converts c to the 32-bit pixel layout used by the framebuffer:
// red in the low byte, then green, blue, and alpha in the high byte.
// Channels are truncated, not rounded.
func (c Color) Pack() uint32 {
	return uint32(to8(c.R)) | uint32(to8(c.G))<<8 | uint32(to8(c.B))<<16 | uint32(to8(c.A))<<24
}

// Unpack converts a packed pixel back to a float color.
func Unpack(p uint32) Color {
	return Color{
		R: float64(p&0xFF) / 255,
		G: float64(p>>8&0xFF) / 255,
		B: float64(p>>16&0xFF) / 255,
		A: float64(p>>24&0xFF) / 255,
	}
}

// Clamp limits every channel to [0, 1].
func (c Color) Clamp() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B), clamp01(c.A)}
}

// NRGBA converts c to an 8-bit non-premultiplied color.
func (c Color) NRGBA() color.NRGBA {
	return PixelNRGBA(c.Pack())
}

// PixelNRGBA splits a packed pixel into its byte channels.
func PixelNRGBA(p uint32) color.NRGBA {
	return color.NRGBA{R: uint8(p), G: uint8(p >> 8), B: uint8(p >> 16), A: uint8(p >> 24)}
}

// PackBytes packs four byte channels.
func PackBytes(r, g, b, a uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

func to8(v float64) int {
	if !(v > 0) {
		return 0
	}
	i := int(255 * v)
	if i < 0 {
		return 0
	}
	if i > 255 {
		return 255
	}
	return i
}

// clamp01 maps NaN to 0.
func clamp01(v float64) float64 {
	if !(v >= 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

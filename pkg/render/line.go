package render

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// lineKind is the walker chosen for a line.
type lineKind int

const (
	lineHorizontal lineKind = iota // y1 == y2
	lineVertical                   // x1 == x2
	lineXMajor                     // |dx| > |dy|
	lineYMajor                     // |dy| >= |dx|
)

// classifyLine picks the walker from truncated endpoint coordinates.
func classifyLine(a, b *poolVertex) lineKind {
	x1, y1, x2, y2 := int(a.x), int(a.y), int(b.x), int(b.y)
	switch {
	case y1 == y2:
		return lineHorizontal
	case x1 == x2:
		return lineVertical
	case abs(x2-x1) > abs(y2-y1):
		return lineXMajor
	default:
		return lineYMajor
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// lineColor yields the color of successive pixels along a line.
type lineColor interface {
	color() uint32
	step()
	skip(n int)
}

// flatColor is a constant line color.
type flatColor uint32

func (c flatColor) color() uint32 { return uint32(c) }
func (flatColor) step()           {}
func (flatColor) skip(int)        {}

// gouraudColor steps each channel independently as a 52.12 fixed-point
// value and rounds when packing, so the last pixel lands on the end color.
type gouraudColor struct {
	v, d [4]fixed.Int52_12
}

func newGouraudColor(c1, c2 uint32, steps int) *gouraudColor {
	g := &gouraudColor{}
	for i := range 4 {
		shift := uint(i * 8)
		from := float64(c1 >> shift & 0xFF)
		to := float64(c2 >> shift & 0xFF)
		g.v[i] = toFixed(from)
		if steps != 0 {
			g.d[i] = toFixed((to - from) / float64(steps))
		}
	}
	return g
}

func (g *gouraudColor) color() uint32 {
	var p uint32
	for i := range 4 {
		p |= uint32(min(max(g.v[i].Round(), 0), 255)) << uint(i*8)
	}
	return p
}

func (g *gouraudColor) step() {
	for i := range 4 {
		g.v[i] += g.d[i]
	}
}

func (g *gouraudColor) skip(n int) {
	for i := range 4 {
		g.v[i] += g.d[i] * fixed.Int52_12(n)
	}
}

func toFixed(f float64) fixed.Int52_12 {
	return fixed.Int52_12(math.Round(f * (1 << 12)))
}

// drawLine classifies a line as flat or Gouraud by its packed endpoint
// colors, then walks it along the matching axis.
func (c *Context) drawLine(a, b *poolVertex) {
	kind := classifyLine(a, b)

	// Every walker runs from the smaller coordinate on its axis.
	switch kind {
	case lineHorizontal, lineXMajor:
		if int(a.x) > int(b.x) {
			a, b = b, a
		}
	default:
		if int(a.y) > int(b.y) {
			a, b = b, a
		}
	}

	var col lineColor = flatColor(b.color)
	if a.color != b.color {
		steps := int(b.x) - int(a.x)
		if kind == lineVertical || kind == lineYMajor {
			steps = int(b.y) - int(a.y)
		}
		col = newGouraudColor(a.color, b.color, steps)
	}

	switch kind {
	case lineHorizontal:
		c.walkHorizontal(a, b, col)
	case lineVertical:
		c.walkVertical(a, b, col)
	case lineXMajor:
		c.walkXMajor(a, b, col)
	case lineYMajor:
		c.walkYMajor(a, b, col)
	}
	c.stats.Lines++
}

// clipAxis limits the walk from lo to hi to [0, size). It returns the first
// and last coordinates to visit and how many steps precede the first.
func clipAxis(lo, hi, size int) (first, last, skipped int) {
	first, last = max(lo, 0), min(hi, size-1)
	return first, last, first - lo
}

// perStep returns the per-step delta, zero for a zero-length walk.
func perStep(z1, z2 float64, steps int) float64 {
	if steps == 0 {
		return 0
	}
	return (z2 - z1) / float64(steps)
}

func (c *Context) walkHorizontal(a, b *poolVertex, col lineColor) {
	y := int(a.y)
	if y < 0 || y >= c.fb.Height {
		return
	}
	x1, x2 := int(a.x), int(b.x)
	dz := perStep(a.z, b.z, x2-x1)
	first, last, skipped := clipAxis(x1, x2, c.fb.Width)
	z := a.z + dz*float64(skipped)
	col.skip(skipped)
	row := y * c.fb.Width
	for x := first; x <= last; x++ {
		if c.testDepth(row+x, z) {
			c.fb.Pixels[row+x] = col.color()
		}
		z += dz
		col.step()
	}
}

func (c *Context) walkVertical(a, b *poolVertex, col lineColor) {
	x := int(a.x)
	if x < 0 || x >= c.fb.Width {
		return
	}
	y1, y2 := int(a.y), int(b.y)
	dz := perStep(a.z, b.z, y2-y1)
	first, last, skipped := clipAxis(y1, y2, c.fb.Height)
	z := a.z + dz*float64(skipped)
	col.skip(skipped)
	for y := first; y <= last; y++ {
		i := x + y*c.fb.Width
		if c.testDepth(i, z) {
			c.fb.Pixels[i] = col.color()
		}
		z += dz
		col.step()
	}
}

// walkXMajor steps x by one pixel and y by a fractional slope.
func (c *Context) walkXMajor(a, b *poolVertex, col lineColor) {
	x1, x2 := int(a.x), int(b.x)
	steps := x2 - x1
	dz := perStep(a.z, b.z, steps)
	dy := perStep(float64(int(a.y)), float64(int(b.y)), steps)
	first, last, skipped := clipAxis(x1, x2, c.fb.Width)
	z := a.z + dz*float64(skipped)
	y := float64(int(a.y)) + dy*float64(skipped)
	col.skip(skipped)
	for x := first; x <= last; x++ {
		if y >= 0 && y < float64(c.fb.Height) {
			i := x + int(y)*c.fb.Width
			if c.testDepth(i, z) {
				c.fb.Pixels[i] = col.color()
			}
		}
		z += dz
		y += dy
		col.step()
	}
}

// walkYMajor steps y by one pixel and x by a fractional slope.
func (c *Context) walkYMajor(a, b *poolVertex, col lineColor) {
	y1, y2 := int(a.y), int(b.y)
	steps := y2 - y1
	dz := perStep(a.z, b.z, steps)
	dx := perStep(float64(int(a.x)), float64(int(b.x)), steps)
	first, last, skipped := clipAxis(y1, y2, c.fb.Height)
	z := a.z + dz*float64(skipped)
	x := float64(int(a.x)) + dx*float64(skipped)
	col.skip(skipped)
	for y := first; y <= last; y++ {
		if x >= 0 && x < float64(c.fb.Width) {
			i := int(x) + y*c.fb.Width
			if c.testDepth(i, z) {
				c.fb.Pixels[i] = col.color()
			}
		}
		z += dz
		x += dx
		col.step()
	}
}

// Package display holds the surfaces a renderer presents to: a terminal
// sink drawn with half-block cells, a desktop window and a PNG writer.
package display

import (
	"image/color"
	"sync"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/scanline/pkg/render"
)

// cellSetter is the part of uv.Screen the terminal sink writes to.
type cellSetter interface {
	SetCell(x, y int, c *uv.Cell)
}

// Terminal is a surface for a character grid. Each cell shows two pixels
// stacked vertically with an upper half block, foreground on top and
// background below, so the pixel height is twice the row count.
type Terminal struct {
	mu         sync.Mutex
	cols, rows int
	pixels     []uint32
	w, h       int
	frames     int
}

// NewTerminal creates a sink for a cols x rows grid.
func NewTerminal(cols, rows int) *Terminal {
	return &Terminal{cols: cols, rows: rows}
}

// Resize changes the grid. The renderer picks the new size up through
// Size on its next Resize.
func (t *Terminal) Resize(cols, rows int) {
	t.mu.Lock()
	t.cols, t.rows = cols, rows
	t.mu.Unlock()
}

// Size reports the pixel size of the grid.
func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols, t.rows * 2
}

// Ready reports whether the grid has any cells.
func (t *Terminal) Ready() bool {
	w, h := t.Size()
	return w > 0 && h > 0
}

// Present keeps a copy of the frame for the next Draw.
func (t *Terminal) Present(pixels []uint32, width, height int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cap(t.pixels) < len(pixels) {
		t.pixels = make([]uint32, len(pixels))
	}
	t.pixels = t.pixels[:len(pixels)]
	copy(t.pixels, pixels)
	t.w, t.h = width, height
	t.frames++
	return nil
}

// Frames returns how many frames have been presented.
func (t *Terminal) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

// Draw writes the last presented frame into area of scr.
func (t *Terminal) Draw(scr cellSetter, area uv.Rectangle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for row := area.Min.Y; row < area.Max.Y; row++ {
		top := (row - area.Min.Y) * 2
		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= t.w || top >= t.h {
				continue
			}
			scr.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: t.colorAt(x, top),
					Bg: t.colorAt(x, top+1),
				},
			})
		}
	}
}

// colorAt returns the pixel at (x, y), or nil when it is transparent or
// outside the frame.
func (t *Terminal) colorAt(x, y int) color.Color {
	if y >= t.h {
		return nil
	}
	c := render.PixelNRGBA(t.pixels[y*t.w+x])
	if c.A == 0 {
		return nil
	}
	return c
}

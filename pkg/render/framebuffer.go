// Package render implements the scan-conversion half of the software
// pipeline: a packed-pixel framebuffer with a parallel z-buffer, a texture
// store, and a drawing context that turns screen-space points, lines and
// triangles into depth-tested pixel writes.
package render

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
)

// FarDepth is the value the z-buffer is reset to. Any finite depth is
// nearer.
const FarDepth = math.MaxFloat64

// Framebuffer owns the pixel array and the depth array. Both are row-major
// with one entry per pixel.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []uint32  // packed colors, see Color.Pack
	Depth  []float64 // smaller is nearer
}

// NewFramebuffer creates a framebuffer with a cleared z-buffer.
func NewFramebuffer(width, height int) (*Framebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	fb := &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]uint32, width*height),
		Depth:  make([]float64, width*height),
	}
	fb.ClearDepth()
	return fb, nil
}

// Clear fills every pixel with the packed color p.
func (fb *Framebuffer) Clear(p uint32) {
	fill(fb.Pixels, p)
}

// ClearDepth resets the z-buffer to FarDepth.
func (fb *Framebuffer) ClearDepth() {
	fill(fb.Depth, FarDepth)
}

// fill sets every element of s to v by copy-doubling.
func fill[T any](s []T, v T) {
	n := len(s)
	if n == 0 {
		return
	}
	s[0] = v
	for i := 1; i < n; i *= 2 {
		copy(s[i:], s[:i])
	}
}

// At returns the packed pixel at (x, y), or 0 when out of bounds.
func (fb *Framebuffer) At(x, y int) uint32 {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return 0
	}
	return fb.Pixels[y*fb.Width+x]
}

// DepthAt returns the stored depth at (x, y), or FarDepth when out of bounds.
func (fb *Framebuffer) DepthAt(x, y int) float64 {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return FarDepth
	}
	return fb.Depth[y*fb.Width+x]
}

// ToImage converts packed pixels to an image.NRGBA.
func ToImage(pixels []uint32, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, p := range pixels[:width*height] {
		j := i * 4
		img.Pix[j] = uint8(p)
		img.Pix[j+1] = uint8(p >> 8)
		img.Pix[j+2] = uint8(p >> 16)
		img.Pix[j+3] = uint8(p >> 24)
	}
	return img
}

// ToImage converts the framebuffer to an image.NRGBA.
func (fb *Framebuffer) ToImage() *image.NRGBA {
	return ToImage(fb.Pixels, fb.Width, fb.Height)
}

// SavePNG writes the framebuffer to a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, fb.ToImage())
}

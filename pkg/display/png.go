package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/taigrr/scanline/pkg/render"
)

// Snapshot is an off-screen surface that keeps the last presented frame
// as an image, optionally captioned, and writes it out as PNG.
type Snapshot struct {
	w, h    int
	img     *image.NRGBA
	Caption string
}

// NewSnapshot creates an off-screen surface of the given size.
func NewSnapshot(width, height int) *Snapshot {
	return &Snapshot{w: width, h: height}
}

func (s *Snapshot) Size() (int, int) { return s.w, s.h }
func (s *Snapshot) Ready() bool      { return s.w > 0 && s.h > 0 }

// Present captures the frame.
func (s *Snapshot) Present(pixels []uint32, width, height int) error {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetNRGBA(x, y, render.PixelNRGBA(pixels[y*width+x]))
		}
	}
	if s.Caption != "" {
		caption(img, s.Caption)
	}
	s.img = img
	return nil
}

// Image returns the last captured frame, or nil.
func (s *Snapshot) Image() *image.NRGBA { return s.img }

// Save writes the last captured frame to path.
func (s *Snapshot) Save(path string) error {
	if s.img == nil {
		return fmt.Errorf("snapshot %s: no frame presented", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, s.img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// caption draws white text on a dark band along the top edge.
func caption(img draw.Image, s string) {
	face := basicfont.Face7x13
	band := image.Rect(0, 0, img.Bounds().Dx(), face.Height+4)
	draw.Draw(img, band, image.NewUniform(color.NRGBA{0, 0, 0, 160}), image.Point{}, draw.Over)
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(2, face.Ascent+2),
	}
	d.DrawString(s)
}

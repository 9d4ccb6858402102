package display

import (
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// Window is a desktop surface backed by ebiten. Present copies the frame
// under a lock; Draw uploads the latest copy on ebiten's own schedule.
type Window struct {
	mu      sync.Mutex
	w, h    int
	rgba    []byte
	dirty   bool
	caption string

	img *ebiten.Image

	// Step runs once per tick before drawing. Returning ebiten.Termination
	// closes the window cleanly.
	Step func() error
}

// NewWindow creates a window surface of the given pixel size.
func NewWindow(width, height int) *Window {
	return &Window{w: width, h: height}
}

// Size reports the window's logical size.
func (win *Window) Size() (int, int) {
	win.mu.Lock()
	defer win.mu.Unlock()
	return win.w, win.h
}

// Ready always reports true; frames presented before the window opens are
// kept until the first Draw.
func (win *Window) Ready() bool { return true }

// Present converts the packed frame to RGBA bytes for the next Draw.
func (win *Window) Present(pixels []uint32, width, height int) error {
	win.mu.Lock()
	defer win.mu.Unlock()
	n := width * height * 4
	if cap(win.rgba) < n {
		win.rgba = make([]byte, n)
	}
	win.rgba = win.rgba[:n]
	for i, p := range pixels[:width*height] {
		j := i * 4
		win.rgba[j+0] = byte(p)
		win.rgba[j+1] = byte(p >> 8)
		win.rgba[j+2] = byte(p >> 16)
		win.rgba[j+3] = byte(p >> 24)
	}
	win.w, win.h = width, height
	win.dirty = true
	return nil
}

// SetCaption sets the text drawn in the top-left corner.
func (win *Window) SetCaption(s string) {
	win.mu.Lock()
	win.caption = s
	win.mu.Unlock()
}

// Update implements ebiten.Game.
func (win *Window) Update() error {
	if win.Step != nil {
		return win.Step()
	}
	return nil
}

// Draw implements ebiten.Game.
func (win *Window) Draw(screen *ebiten.Image) {
	win.mu.Lock()
	defer win.mu.Unlock()
	if len(win.rgba) == 0 {
		return
	}
	if win.img == nil || win.img.Bounds().Dx() != win.w || win.img.Bounds().Dy() != win.h {
		if win.img != nil {
			win.img.Deallocate()
		}
		win.img = ebiten.NewImage(win.w, win.h)
		win.dirty = true
	}
	if win.dirty {
		win.img.WritePixels(win.rgba)
		win.dirty = false
	}
	screen.DrawImage(win.img, nil)
	if win.caption != "" {
		text.Draw(screen, win.caption, basicfont.Face7x13, 4, 14, color.NRGBA{255, 255, 255, 255})
	}
}

// Layout implements ebiten.Game. The logical screen is the frame size and
// ebiten scales it to the window.
func (win *Window) Layout(_, _ int) (int, int) {
	return win.Size()
}

// Run opens the window at scale times the frame size and blocks until it
// is closed.
func (win *Window) Run(title string, scale, tps int) error {
	w, h := win.Size()
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(w*scale, h*scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(tps)
	return ebiten.RunGame(win)
}

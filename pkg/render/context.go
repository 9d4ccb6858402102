package render

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/taigrr/scanline/pkg/math3d"
)

var (
	// ErrSurfaceNotReady is returned when a context is bound to a surface
	// that cannot present yet.
	ErrSurfaceNotReady = errors.New("render: surface is not presentable")
	ErrInvalidSize     = errors.New("render: invalid size")
	ErrTextureFormat   = errors.New("render: unsupported texture format")
	ErrTextureSize     = errors.New("render: invalid texture size")
	ErrTextureNotFound = errors.New("render: texture not found")
)

// Surface is the display collaborator a Context publishes finished frames
// to. Pixels use the packed layout of Color.Pack and are only valid for the
// duration of the call.
type Surface interface {
	// Size reports the surface dimensions in pixels.
	Size() (width, height int)
	// Ready reports whether the surface can accept frames.
	Ready() bool
	// Present displays a complete frame.
	Present(pixels []uint32, width, height int) error
}

// DrawMode is the primitive kind the context assembles incoming vertices
// into.
type DrawMode int

const (
	Idle      DrawMode = iota
	Points             // one vertex per primitive
	Lines              // two vertices per primitive
	Triangles          // three vertices per primitive
	Polygon            // triangle fan around the first vertex
)

func (m DrawMode) String() string {
	switch m {
	case Points:
		return "points"
	case Lines:
		return "lines"
	case Triangles:
		return "triangles"
	case Polygon:
		return "polygon"
	}
	return "idle"
}

// Stats counts rasterized primitives since the last ResetStats.
type Stats struct {
	Points    int
	Lines     int
	Triangles int
}

// poolVertex is a screen-space vertex waiting for its primitive to fill.
type poolVertex struct {
	x, y, z float64
	color   uint32
	uv      math3d.Vec2
}

// Context is the scan converter bound to one surface. All drawing calls
// must come from a single goroutine; Update, Present and Snapshot may be
// called from any goroutine.
type Context struct {
	fb       *Framebuffer
	textures *TextureStore
	surface  Surface

	mode  DrawMode
	pool  [3]poolVertex
	n     int
	color uint32
	uv    math3d.Vec2

	depthTest   bool
	texturing   bool
	textureMode TextureMode
	stats       Stats

	mu    sync.Mutex
	front []uint32
	dirty bool
}

// NewContext creates a context sized to the surface. It fails with
// ErrSurfaceNotReady if the surface cannot present.
func NewContext(s Surface) (*Context, error) {
	if s == nil || !s.Ready() {
		return nil, ErrSurfaceNotReady
	}
	w, h := s.Size()
	fb, err := NewFramebuffer(w, h)
	if err != nil {
		return nil, fmt.Errorf("create framebuffer: %w", err)
	}

	c := &Context{
		fb:        fb,
		textures:  NewTextureStore(),
		surface:   s,
		color:     White.Pack(),
		depthTest: true,
		texturing: true,
		front:     make([]uint32, w*h),
	}
	Logger().Info("render context created", "width", w, "height", h)
	return c, nil
}

// Resize replaces the framebuffer. Pixels and depth are cleared.
func (c *Context) Resize(width, height int) error {
	fb, err := NewFramebuffer(width, height)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.fb = fb
	c.front = make([]uint32, width*height)
	c.dirty = false
	c.mu.Unlock()
	Logger().Info("render context resized", "width", width, "height", height)
	return nil
}

// Width returns the framebuffer width.
func (c *Context) Width() int { return c.fb.Width }

// Height returns the framebuffer height.
func (c *Context) Height() int { return c.fb.Height }

// Framebuffer returns the back buffer being drawn into.
func (c *Context) Framebuffer() *Framebuffer { return c.fb }

// Textures returns the texture store.
func (c *Context) Textures() *TextureStore { return c.textures }

// SetDepthTest toggles z-buffering. With it disabled a pixel is written
// whenever its depth is non-negative.
func (c *Context) SetDepthTest(on bool) { c.depthTest = on }

// DepthTest reports whether z-buffering is enabled.
func (c *Context) DepthTest() bool { return c.depthTest }

// SetTexturing toggles texture sampling for triangles.
func (c *Context) SetTexturing(on bool) { c.texturing = on }

// Texturing reports whether texture sampling is enabled.
func (c *Context) Texturing() bool { return c.texturing }

// SetTextureMode selects how texels combine with vertex colors.
func (c *Context) SetTextureMode(m TextureMode) { c.textureMode = m }

// TextureMode returns the current texture mode.
func (c *Context) TextureMode() TextureMode { return c.textureMode }

// Stats returns primitive counts since the last reset.
func (c *Context) Stats() Stats { return c.stats }

// ResetStats zeroes the primitive counters.
func (c *Context) ResetStats() { c.stats = Stats{} }

// Clear fills the back buffer with col.
func (c *Context) Clear(col Color) {
	c.fb.Clear(col.Pack())
}

// ClearDepth resets the z-buffer.
func (c *Context) ClearDepth() {
	c.fb.ClearDepth()
}

// Begin enters a drawing mode and empties the vertex pool.
func (c *Context) Begin(mode DrawMode) {
	c.mode = mode
	c.n = 0
}

// End returns to Idle. A partially filled pool is dropped.
func (c *Context) End() {
	c.mode = Idle
	c.n = 0
}

// Mode returns the current drawing mode.
func (c *Context) Mode() DrawMode { return c.mode }

// SetColor sets the color attached to the next vertex.
func (c *Context) SetColor(col Color) {
	c.color = col.Pack()
}

// SetUV sets the texture coordinate attached to the next vertex.
func (c *Context) SetUV(uv math3d.Vec2) {
	c.uv = uv
}

// Vertex feeds one screen-space vertex. Once the pool holds enough vertices
// for the current mode the primitive is rasterized.
func (c *Context) Vertex(x, y, z float64) {
	v := poolVertex{x: x, y: y, z: z, color: c.color, uv: c.uv}

	switch c.mode {
	case Points:
		c.drawPoint(v)
	case Lines:
		c.pool[c.n] = v
		c.n++
		if c.n == 2 {
			c.drawLine(&c.pool[0], &c.pool[1])
			c.n = 0
		}
	case Triangles:
		c.pool[c.n] = v
		c.n++
		if c.n == 3 {
			c.drawTriangle()
			c.n = 0
		}
	case Polygon:
		c.pool[c.n] = v
		c.n++
		if c.n == 3 {
			c.drawTriangle()
			// Keep the pivot and the last vertex for the next fan triangle.
			c.pool[1] = c.pool[2]
			c.n = 2
		}
	}
}

// testDepth is the single predicate gating every pixel write.
func (c *Context) testDepth(i int, z float64) bool {
	if !c.depthTest {
		return z >= 0
	}
	if z < c.fb.Depth[i] {
		c.fb.Depth[i] = z
		return true
	}
	return false
}

func (c *Context) drawPoint(v poolVertex) {
	fx, fy := math.Floor(v.x), math.Floor(v.y)
	if !(fx >= 0 && fx < float64(c.fb.Width) && fy >= 0 && fy < float64(c.fb.Height)) {
		return
	}
	i := int(fx) + int(fy)*c.fb.Width
	if c.testDepth(i, v.z) {
		c.fb.Pixels[i] = v.color
	}
	c.stats.Points++
}

// Update publishes the back buffer as the next frame to present. It shares
// a lock with Present so a frame is never presented half-copied.
func (c *Context) Update() {
	c.mu.Lock()
	copy(c.front, c.fb.Pixels)
	c.dirty = true
	c.mu.Unlock()
}

// Present pushes the last updated frame to the surface if it has not been
// presented yet.
func (c *Context) Present() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	w, h := c.fb.Width, c.fb.Height
	if err := c.surface.Present(c.front, w, h); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	c.dirty = false
	return nil
}

// Snapshot returns a copy of the last updated frame.
func (c *Context) Snapshot() []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint32(nil), c.front...)
}

package pipeline

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/shading"
)

type memSurface struct {
	w, h   int
	mu     sync.Mutex
	frames int
}

func (s *memSurface) Size() (int, int) { return s.w, s.h }
func (s *memSurface) Ready() bool      { return true }
func (s *memSurface) Present([]uint32, int, int) error {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
	return nil
}

// createTestRenderer returns a renderer on a 100x100 surface with a 90
// degree perspective projection covering z in [-1, -10].
func createTestRenderer(t testing.TB) (*Renderer, *memSurface) {
	t.Helper()
	s := &memSurface{w: 100, h: 100}
	r, err := NewRenderer(s, DefaultConfig())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	r.LoadProjection(math3d.Perspective(math.Pi/2, 1, 1, 10))
	r.BeginFrame()
	return r, s
}

func pixels(r *Renderer, p uint32) int {
	n := 0
	for _, px := range r.Context().Framebuffer().Pixels {
		if px == p {
			n++
		}
	}
	return n
}

// unitSquare is two triangles at z=-2, front-facing for the default cull
// mode.
func unitSquare() *Batch {
	return &Batch{
		Type: Triangles,
		Vertices: []math3d.Vec3{
			{X: -0.5, Y: -0.5, Z: -2}, {X: -0.5, Y: 0.5, Z: -2}, {X: 0.5, Y: 0.5, Z: -2},
			{X: -0.5, Y: -0.5, Z: -2}, {X: 0.5, Y: 0.5, Z: -2}, {X: 0.5, Y: -0.5, Z: -2},
		},
	}
}

func TestNewRendererDefaults(t *testing.T) {
	r, err := NewRenderer(&memSurface{w: 64, h: 32}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if zn, zf := r.DepthRange(); zn != math3d.DefaultZNear || zf != math3d.DefaultZFar {
		t.Errorf("DepthRange() = (%v, %v), want defaults", zn, zf)
	}
	if w, h := r.Viewport(); w != 64 || h != 32 {
		t.Errorf("Viewport() = %dx%d, want 64x32", w, h)
	}
	if r.Lighting() || !r.Culling() || r.CullFace() != CullBack {
		t.Error("unexpected initial toggles")
	}
	if r.Context().TextureMode() != render.TextureModulate {
		t.Errorf("TextureMode() = %v, want modulate", r.Context().TextureMode())
	}
	if r.MaxLights() != shading.DefaultMaxLights {
		t.Errorf("MaxLights() = %d", r.MaxLights())
	}

	if _, err := NewRenderer(&memSurface{}, DefaultConfig()); !errors.Is(err, render.ErrInvalidSize) {
		t.Errorf("zero-size surface error = %v, want ErrInvalidSize", err)
	}
}

func TestLoadProjectionDepthRange(t *testing.T) {
	r, _ := createTestRenderer(t)
	zn, zf := r.DepthRange()
	if math.Abs(zn+1) > 1e-9 || math.Abs(zf+10) > 1e-9 {
		t.Errorf("DepthRange() = (%v, %v), want (-1, -10)", zn, zf)
	}
}

func TestScreenCenter(t *testing.T) {
	r, _ := createTestRenderer(t)
	if err := r.Draw(&Batch{Type: Points, Vertices: []math3d.Vec3{{Z: -2}}}); err != nil {
		t.Fatal(err)
	}
	// Screen mapping uses half extents of w/2-1.
	if got := r.Context().Framebuffer().At(49, 49); got != render.White.Pack() {
		t.Errorf("center pixel = %#x, want white", got)
	}
	if got := r.Stats().Points; got != 1 {
		t.Errorf("Stats().Points = %d, want 1", got)
	}
}

func TestUnitSquare(t *testing.T) {
	r, _ := createTestRenderer(t)
	if err := r.Draw(unitSquare()); err != nil {
		t.Fatal(err)
	}

	fb := r.Context().Framebuffer()
	white, black := render.White.Pack(), render.Black.Pack()
	for y := range fb.Height {
		for x := range fb.Width {
			inside := x >= 36 && x <= 61 && y >= 36 && y <= 61
			got := fb.At(x, y)
			if inside && got != white {
				t.Fatalf("pixel (%d,%d) inside the square is %#x", x, y, got)
			}
			if !inside && got != black {
				t.Fatalf("pixel (%d,%d) outside the square is %#x", x, y, got)
			}
		}
	}
	if s := r.Stats(); s.Triangles != 2 || s.Culled != 0 || s.Discarded != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestNearFarDiscard(t *testing.T) {
	tests := []struct {
		name string
		z    float64
	}{
		{"in front of near plane", -0.5},
		{"behind the eye", 3},
		{"beyond far plane", -20},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := createTestRenderer(t)
			b := &Batch{
				Type: Triangles,
				Vertices: []math3d.Vec3{
					// One vertex out of range drops the whole triangle.
					{X: -0.5, Y: -0.5, Z: -2}, {X: -0.5, Y: 0.5, Z: tc.z}, {X: 0.5, Y: 0.5, Z: -2},
					// The next triangle is unaffected.
					{X: -0.5, Y: -0.5, Z: -2}, {X: 0.5, Y: 0.5, Z: -2}, {X: 0.5, Y: -0.5, Z: -2},
				},
			}
			if err := r.Draw(b); err != nil {
				t.Fatal(err)
			}
			s := r.Stats()
			if s.Discarded != 1 || s.Triangles != 1 {
				t.Errorf("Stats() = %+v, want 1 discarded and 1 drawn", s)
			}
			// The dropped triangle covers the upper left half of the square.
			fb := r.Context().Framebuffer()
			if got := fb.At(40, 40); got != render.Black.Pack() {
				t.Errorf("pixel in dropped triangle = %#x, want clear color", got)
			}
			if got := fb.At(58, 58); got != render.White.Pack() {
				t.Errorf("pixel in kept triangle = %#x, want white", got)
			}
		})
	}
}

func TestCulling(t *testing.T) {
	front := []math3d.Vec3{{X: -0.5, Y: -0.5, Z: -2}, {X: -0.5, Y: 0.5, Z: -2}, {X: 0.5, Y: 0.5, Z: -2}}
	back := []math3d.Vec3{front[0], front[2], front[1]}

	tests := []struct {
		name     string
		culling  bool
		face     CullFace
		verts    []math3d.Vec3
		wantDraw bool
	}{
		{"back mode keeps front", true, CullBack, front, true},
		{"back mode drops back", true, CullBack, back, false},
		{"front mode drops front", true, CullFront, front, false},
		{"front mode keeps back", true, CullFront, back, true},
		{"disabled keeps back", false, CullBack, back, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := createTestRenderer(t)
			r.SetCulling(tc.culling)
			r.SetCullFace(tc.face)
			if err := r.Draw(&Batch{Type: Triangles, Vertices: tc.verts}); err != nil {
				t.Fatal(err)
			}
			drawn := pixels(r, render.White.Pack()) > 0
			if drawn != tc.wantDraw {
				t.Errorf("drawn = %v, want %v", drawn, tc.wantDraw)
			}
			if !tc.wantDraw && r.Stats().Culled != 1 {
				t.Errorf("Culled = %d, want 1", r.Stats().Culled)
			}
		})
	}
}

func TestDrawRejectsMismatchedStreams(t *testing.T) {
	r, _ := createTestRenderer(t)
	b := unitSquare()
	b.Colors = []render.Color{render.Red}
	if err := r.Draw(b); !errors.Is(err, ErrStreamLength) {
		t.Fatalf("Draw() error = %v, want ErrStreamLength", err)
	}
	if n := pixels(r, render.Black.Pack()); n != 100*100 {
		t.Errorf("%d pixels changed by a rejected batch", 100*100-n)
	}
}

func TestColorStreamAndCurrentColor(t *testing.T) {
	r, _ := createTestRenderer(t)
	r.SetColor(render.Green)
	if err := r.Draw(unitSquare()); err != nil {
		t.Fatal(err)
	}
	if pixels(r, render.Green.Pack()) == 0 {
		t.Error("current color not used without a color stream")
	}

	r.BeginFrame()
	b := unitSquare()
	b.Colors = make([]render.Color, 6)
	for i := range b.Colors {
		b.Colors[i] = render.Blue
	}
	if err := r.Draw(b); err != nil {
		t.Fatal(err)
	}
	if pixels(r, render.Blue.Pack()) == 0 || pixels(r, render.Green.Pack()) != 0 {
		t.Error("color stream not used")
	}
}

func TestLitPointSaturatesDiffuse(t *testing.T) {
	r, _ := createTestRenderer(t)
	r.SetLighting(true)
	r.SetGlobalAmbient(render.RGB(0, 0, 0))
	r.LoadModelView(math3d.Identity())
	if err := r.SetLightParam(shading.Diffuse, []float64{1, 1, 1, 1}, 0); err != nil {
		t.Fatal(err)
	}
	if err := r.SetLightParam(shading.Ambient, []float64{0, 0, 0}, 0); err != nil {
		t.Fatal(err)
	}

	b := &Batch{
		Type:     Points,
		Vertices: []math3d.Vec3{{Z: -2}},
		Normals:  []math3d.Vec3{{Z: 1}},
		Colors:   []render.Color{render.Black},
	}
	if err := r.Draw(b); err != nil {
		t.Fatal(err)
	}
	if got := r.Context().Framebuffer().At(49, 49); got != render.White.Pack() {
		t.Errorf("lit pixel = %#x, want saturated white", got)
	}
}

func TestLightingWithoutNormalsIsUnlit(t *testing.T) {
	r, _ := createTestRenderer(t)
	r.SetLighting(true)
	r.SetColor(render.Red)
	if err := r.Draw(&Batch{Type: Points, Vertices: []math3d.Vec3{{Z: -2}}}); err != nil {
		t.Fatal(err)
	}
	if got := r.Context().Framebuffer().At(49, 49); got != render.Red.Pack() {
		t.Errorf("pixel = %#x, want the unlit color", got)
	}
}

func TestLightIndex(t *testing.T) {
	r, _ := createTestRenderer(t)
	if err := r.EnableLight(r.MaxLights()); !errors.Is(err, ErrLightIndex) {
		t.Errorf("EnableLight(max) error = %v", err)
	}
	if err := r.SetLightParam(shading.SpotCutoff, []float64{45}, -1); !errors.Is(err, ErrLightIndex) {
		t.Errorf("SetLightParam(-1) error = %v", err)
	}
	if err := r.SetLightParam(shading.SpotCutoff, []float64{45, 1}, 0); !errors.Is(err, ErrLightParam) {
		t.Errorf("SetLightParam arity error = %v", err)
	}
	if err := r.EnableLight(3); err != nil || !r.Shading().Lights[3].Enabled {
		t.Errorf("EnableLight(3) = %v", err)
	}
	if err := r.DisableLight(3); err != nil || r.Shading().Lights[3].Enabled {
		t.Errorf("DisableLight(3) = %v", err)
	}
}

func TestLightPositionFollowsModelView(t *testing.T) {
	r, _ := createTestRenderer(t)
	r.SetCameraTransformation(math3d.Translate(math3d.V3(0, 0, -5)))
	if err := r.SetLightParam(shading.Position, []float64{0, 1, 0, 1}, 0); err != nil {
		t.Fatal(err)
	}
	if got := r.Shading().Lights[0].Position; got != math3d.V3(0, 1, -5) {
		t.Errorf("Position = %+v, want (0, 1, -5)", got)
	}
}

func TestCameraObjectSplit(t *testing.T) {
	r, _ := createTestRenderer(t)
	r.SetCameraTransformation(math3d.Translate(math3d.V3(0, 0, -5)))
	r.SetObjectTransformation(math3d.Translate(math3d.V3(1, 0, 0)))
	if got := r.ModelView().Translation(); got != math3d.V3(1, 0, -5) {
		t.Errorf("model-view translation = %+v, want (1, 0, -5)", got)
	}

	r.LoadModelView(math3d.Identity())
	if r.ModelView() != math3d.Identity() {
		t.Error("LoadModelView did not replace the matrix")
	}
}

func TestTexturedBatch(t *testing.T) {
	r, _ := createTestRenderer(t)
	data := make([]byte, 2*2*4)
	for i := 0; i < len(data); i += 4 {
		data[i], data[i+1], data[i+2], data[i+3] = 10, 200, 30, 255
	}
	id, err := r.CreateTexture(data, render.FormatRGBA, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.SelectTexture(id); err != nil {
		t.Fatal(err)
	}
	r.SetTextureMode(render.TextureReplace)

	b := unitSquare()
	b.UVs = []math3d.Vec2{{X: 0, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	if err := r.Draw(b); err != nil {
		t.Fatal(err)
	}
	texel := render.PackBytes(10, 200, 30, 255)
	if n := pixels(r, texel); n != 26*26 {
		t.Errorf("%d texel pixels, want %d", n, 26*26)
	}

	if err := r.DeleteTexture(id); err != nil {
		t.Fatal(err)
	}
	if err := r.SelectTexture(id); !errors.Is(err, render.ErrTextureNotFound) {
		t.Errorf("SelectTexture(deleted) error = %v", err)
	}
}

func TestSetTextureModeFallback(t *testing.T) {
	r, _ := createTestRenderer(t)
	r.SetTextureMode(render.TextureMode(7))
	if got := r.Context().TextureMode(); got != render.TextureReplace {
		t.Errorf("TextureMode() = %v, want replace", got)
	}
}

func TestPolygon(t *testing.T) {
	square := []math3d.Vec3{
		{X: -0.5, Y: -0.5, Z: -2}, {X: -0.5, Y: 0.5, Z: -2},
		{X: 0.5, Y: 0.5, Z: -2}, {X: 0.5, Y: -0.5, Z: -2},
	}

	r, _ := createTestRenderer(t)
	if err := r.Draw(&Batch{Type: Polygon, Vertices: square}); err != nil {
		t.Fatal(err)
	}
	if n := pixels(r, render.White.Pack()); n != 26*26 {
		t.Errorf("polygon covers %d pixels, want %d", n, 26*26)
	}

	r.BeginFrame()
	clipped := append([]math3d.Vec3(nil), square...)
	clipped[3].Z = -50
	if err := r.Draw(&Batch{Type: Polygon, Vertices: clipped}); err != nil {
		t.Fatal(err)
	}
	if n := pixels(r, render.White.Pack()); n != 0 || r.Stats().Discarded != 1 {
		t.Errorf("clipped polygon drew %d pixels", n)
	}
}

func TestLinesBatch(t *testing.T) {
	r, _ := createTestRenderer(t)
	b := &Batch{
		Type:     Lines,
		Vertices: []math3d.Vec3{{X: -0.5, Z: -2}, {X: 0.5, Z: -2}},
		Colors:   []render.Color{render.Red, render.Blue},
	}
	if err := r.Draw(b); err != nil {
		t.Fatal(err)
	}
	if s := r.Stats(); s.Lines != 1 {
		t.Errorf("Lines = %d, want 1", s.Lines)
	}
	fb := r.Context().Framebuffer()
	if fb.At(36, 49) != render.Red.Pack() || fb.At(61, 49) != render.Blue.Pack() {
		t.Errorf("line endpoints = %#x, %#x", fb.At(36, 49), fb.At(61, 49))
	}
}

func TestEndFramePresents(t *testing.T) {
	r, s := createTestRenderer(t)
	if err := r.Draw(unitSquare()); err != nil {
		t.Fatal(err)
	}
	if err := r.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if s.frames != 1 {
		t.Errorf("frames presented = %d, want 1", s.frames)
	}
	if got := r.Context().Snapshot()[49*100+49]; got != render.White.Pack() {
		t.Errorf("snapshot center = %#x", got)
	}
}

func TestResize(t *testing.T) {
	r, _ := createTestRenderer(t)
	if err := r.Resize(40, 20); err != nil {
		t.Fatal(err)
	}
	if w, h := r.Viewport(); w != 40 || h != 20 {
		t.Errorf("Viewport() = %dx%d", w, h)
	}
	if err := r.SetViewport(0, 5); !errors.Is(err, render.ErrInvalidSize) {
		t.Errorf("SetViewport(0,5) error = %v", err)
	}
}

func TestRenderInfo(t *testing.T) {
	r, _ := createTestRenderer(t)
	info := r.RenderInfo()
	for _, want := range []string{Name, "viewport: 100x100", "max lights: 8", "culling: on (back)"} {
		if !strings.Contains(info, want) {
			t.Errorf("RenderInfo() missing %q:\n%s", want, info)
		}
	}
}

func BenchmarkDrawCube(b *testing.B) {
	r, _ := createTestRenderer(b)
	r.SetObjectTransformation(math3d.Translate(math3d.V3(0, 0, -3)).Mul(math3d.RotateY(0.5)))
	sq := unitSquare()
	batch := &Batch{Type: Triangles}
	for i := range 6 {
		face := &Batch{Type: Triangles, Vertices: make([]math3d.Vec3, len(sq.Vertices))}
		rot := math3d.RotateY(float64(i) * math.Pi / 2)
		for j, v := range sq.Vertices {
			face.Vertices[j] = rot.MulPoint(math3d.V3(v.X, v.Y, 0.5)).Vec3()
		}
		batch.Append(face)
	}

	for b.Loop() {
		r.BeginFrame()
		_ = r.Draw(batch)
	}
}

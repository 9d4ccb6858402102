// Package pipeline is the geometry front end of the software renderer. It
// transforms model-space batches to view space, discards primitives that
// cross the near or far plane, lights vertices, culls back- or
// front-facing triangles and maps the survivors to screen space for the
// scan converter in package render.
package pipeline

import (
	"fmt"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/shading"
)

// FrameStats counts what happened to submitted geometry since the last
// BeginFrame.
type FrameStats struct {
	Batches    int // draw calls accepted
	Primitives int // primitives assembled
	Discarded  int // primitives dropped by the near/far test
	Culled     int // triangles dropped by the facing test
	render.Stats
}

// vertex is one vertex on its way through the pipeline.
type vertex struct {
	view   math3d.Vec3 // after the model-view transform
	ndc    math3d.Vec3 // after projection and divide
	color  render.Color
	normal math3d.Vec3
	uv     math3d.Vec2
}

// Renderer drives a render.Context from model-space batches. It is not safe
// for concurrent use; only the Context's Present and Snapshot may run on
// another goroutine.
type Renderer struct {
	ctx   *render.Context
	light *shading.Context

	projection  math3d.Mat4
	camera      math3d.Mat4
	object      math3d.Mat4
	modelView   math3d.Mat4
	zNear, zFar float64

	viewW, viewH int
	wF, hF       float64 // screen-map half extents

	lighting   bool
	culling    bool
	cullFace   CullFace
	clearColor render.Color
	color      render.Color

	stats   FrameStats
	scratch []vertex
}

// NewRenderer creates a renderer presenting to s. The viewport starts at
// the surface size and both matrices start as identity, with the default
// depth range in effect until a projection is loaded.
func NewRenderer(s render.Surface, cfg Config) (*Renderer, error) {
	ctx, err := render.NewContext(s)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		ctx:        ctx,
		light:      shading.NewContext(cfg.MaxLights),
		projection: math3d.Identity(),
		camera:     math3d.Identity(),
		object:     math3d.Identity(),
		modelView:  math3d.Identity(),
		zNear:      math3d.DefaultZNear,
		zFar:       math3d.DefaultZFar,
		lighting:   cfg.Lighting,
		culling:    cfg.Culling,
		cullFace:   cfg.CullFace,
		clearColor: cfg.ClearColor,
		color:      render.White,
	}
	ctx.SetDepthTest(cfg.DepthTest)
	ctx.SetTexturing(cfg.Texturing)
	r.SetTextureMode(cfg.TextureMode)
	if err := r.SetViewport(ctx.Width(), ctx.Height()); err != nil {
		return nil, err
	}
	return r, nil
}

// Context returns the scan converter the renderer draws through.
func (r *Renderer) Context() *render.Context { return r.ctx }

// Shading returns the lighting state.
func (r *Renderer) Shading() *shading.Context { return r.light }

// LoadProjection sets the projection matrix and derives the near and far
// planes from it.
func (r *Renderer) LoadProjection(m math3d.Mat4) {
	r.projection = m
	r.zNear, r.zFar = m.DepthRange()
}

// Projection returns the projection matrix.
func (r *Renderer) Projection() math3d.Mat4 { return r.projection }

// DepthRange returns the view-space z of the near and far planes. Both are
// negative for a perspective projection.
func (r *Renderer) DepthRange() (zNear, zFar float64) { return r.zNear, r.zFar }

// LoadModelView sets the model-view matrix directly.
func (r *Renderer) LoadModelView(m math3d.Mat4) {
	r.modelView = m
}

// ModelView returns the model-view matrix.
func (r *Renderer) ModelView() math3d.Mat4 { return r.modelView }

// SetCameraTransformation sets the world-to-view half of the model-view.
func (r *Renderer) SetCameraTransformation(m math3d.Mat4) {
	r.camera = m
	r.modelView = r.camera.Mul(r.object)
}

// SetObjectTransformation sets the model-to-world half of the model-view.
func (r *Renderer) SetObjectTransformation(m math3d.Mat4) {
	r.object = m
	r.modelView = r.camera.Mul(r.object)
}

// SetViewport sets the screen-map extent. It may differ from the
// framebuffer size; pixels outside the framebuffer are dropped.
func (r *Renderer) SetViewport(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: viewport %dx%d", render.ErrInvalidSize, width, height)
	}
	r.viewW, r.viewH = width, height
	r.wF = float64(width)/2 - 1
	r.hF = float64(height)/2 - 1
	return nil
}

// Viewport returns the screen-map extent.
func (r *Renderer) Viewport() (width, height int) { return r.viewW, r.viewH }

// Resize resizes the framebuffer and the viewport together.
func (r *Renderer) Resize(width, height int) error {
	if err := r.ctx.Resize(width, height); err != nil {
		return err
	}
	return r.SetViewport(width, height)
}

// SetDepthTest toggles z-buffering.
func (r *Renderer) SetDepthTest(on bool) { r.ctx.SetDepthTest(on) }

// SetTexturing toggles texture sampling.
func (r *Renderer) SetTexturing(on bool) { r.ctx.SetTexturing(on) }

// SetLighting toggles per-vertex lighting.
func (r *Renderer) SetLighting(on bool) { r.lighting = on }

// Lighting reports whether lighting is enabled.
func (r *Renderer) Lighting() bool { return r.lighting }

// SetCulling toggles the facing test for triangles and polygons.
func (r *Renderer) SetCulling(on bool) { r.culling = on }

// Culling reports whether the facing test is enabled.
func (r *Renderer) Culling() bool { return r.culling }

// SetCullFace selects which faces the culler drops.
func (r *Renderer) SetCullFace(f CullFace) { r.cullFace = f }

// CullFace returns the faces the culler drops.
func (r *Renderer) CullFace() CullFace { return r.cullFace }

// SetClearColor sets the color Clear fills with.
func (r *Renderer) SetClearColor(c render.Color) { r.clearColor = c }

// Clear fills the framebuffer with the clear color and, when depth testing
// is on, resets the z-buffer.
func (r *Renderer) Clear() {
	r.ctx.Clear(r.clearColor)
	if r.ctx.DepthTest() {
		r.ctx.ClearDepth()
	}
}

// SetColor sets the color used by batches without a color stream.
func (r *Renderer) SetColor(c render.Color) { r.color = c }

// BeginFrame clears the framebuffer and resets the frame counters.
func (r *Renderer) BeginFrame() {
	r.Clear()
	r.stats = FrameStats{}
	r.ctx.ResetStats()
}

// EndFrame publishes the framebuffer and presents it.
func (r *Renderer) EndFrame() error {
	r.ctx.Update()
	return r.ctx.Present()
}

// Stats returns the counters for the current frame.
func (r *Renderer) Stats() FrameStats {
	s := r.stats
	s.Stats = r.ctx.Stats()
	return s
}

// Draw runs a batch through the pipeline. The batch is validated first; a
// rejected batch draws nothing.
func (r *Renderer) Draw(b *Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	r.stats.Batches++

	size := b.Type.size()
	if b.Type == Polygon {
		size = len(b.Vertices)
	}
	if size == 0 {
		return nil
	}
	if cap(r.scratch) < size {
		r.scratch = make([]vertex, size)
	}
	prim := r.scratch[:size]

	lit := r.lighting && b.Normals != nil
	verts := NewStream(b.Vertices)
	colors := NewStream(b.Colors)
	normals := NewStream(b.Normals)
	uvs := NewStream(b.UVs)

	before := r.stats
	r.ctx.Begin(b.Type.mode())
	defer r.ctx.End()

	for {
		pos, ok := verts.Take(size)
		if !ok {
			break
		}
		// Attribute streams advance with the vertices whether or not the
		// primitive survives, so they never fall out of step.
		cs, hasColor := colors.Take(size)
		ns, _ := normals.Take(size)
		ts, hasUV := uvs.Take(size)
		r.stats.Primitives++

		if !r.transform(prim, pos) {
			r.stats.Discarded++
			continue
		}
		if size >= 3 && r.culling && r.culled(prim) {
			r.stats.Culled++
			continue
		}

		for i := range prim {
			v := &prim[i]
			v.color = r.color
			if hasColor {
				v.color = cs[i]
			}
			v.uv = math3d.Vec2{}
			if hasUV {
				v.uv = ts[i]
			}
			if lit {
				v.normal = r.modelView.MulDir(ns[i]).Normalize()
				v.color = r.light.Apply(v.view, v.normal, v.color)
			}
			r.emit(v)
		}
	}

	render.Logger().Debug("batch drawn",
		"type", b.Type,
		"primitives", r.stats.Primitives-before.Primitives,
		"discarded", r.stats.Discarded-before.Discarded,
		"culled", r.stats.Culled-before.Culled)
	return nil
}

// transform moves a primitive's vertices to view space and NDC. It reports
// false if any vertex lies outside the near/far range, in which case the
// whole primitive is dropped.
func (r *Renderer) transform(prim []vertex, pos []math3d.Vec3) bool {
	for i, p := range pos {
		v := &prim[i]
		v.view = r.modelView.MulPoint(p).Vec3()
		if v.view.Z > r.zNear || v.view.Z < r.zFar {
			return false
		}
		v.ndc = r.projection.MulPoint(v.view).PerspectiveDivide().Vec3()
	}
	return true
}

// facing returns the face normal of a triangle in NDC dotted with the view
// direction.
func facing(a, b, c math3d.Vec3) float64 {
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	return n.Dot(math3d.ViewDir())
}

// culled applies the facing test to the first three vertices.
func (r *Renderer) culled(prim []vertex) bool {
	d := facing(prim[0].ndc, prim[1].ndc, prim[2].ndc)
	if r.cullFace == CullFront {
		return d > 0
	}
	return d < 0
}

// emit maps a vertex to screen space and feeds it to the scan converter.
func (r *Renderer) emit(v *vertex) {
	r.ctx.SetColor(v.color)
	r.ctx.SetUV(v.uv)
	x := r.wF * (1 + v.ndc.X)
	y := r.hF * (1 - v.ndc.Y)
	r.ctx.Vertex(x, y, v.ndc.Z)
}

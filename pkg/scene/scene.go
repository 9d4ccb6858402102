package scene

import (
	"fmt"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/pipeline"
	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/shading"
)

// Object is a set of batches drawn under one model transform.
type Object struct {
	Name      string
	Batches   []*pipeline.Batch
	Bounds    AABB // model space
	Transform math3d.Mat4
	Texture   int               // render.NoTexture draws untextured
	Material  *shading.Material // nil keeps the renderer's material
	Hidden    bool
}

// NewObject creates an untextured object with identity transform and
// bounds enclosing every batch vertex.
func NewObject(name string, batches ...*pipeline.Batch) *Object {
	var pts []math3d.Vec3
	for _, b := range batches {
		pts = append(pts, b.Vertices...)
	}
	return &Object{
		Name:      name,
		Batches:   batches,
		Bounds:    BoundsOf(pts),
		Transform: math3d.Identity(),
		Texture:   render.NoTexture,
	}
}

// Stats counts frustum rejection for the last Render.
type Stats struct {
	Tested int // objects tested against the frustum
	Culled int // objects rejected
	Drawn  int // objects submitted
}

// Scene is a camera, its lights and a flat list of objects.
type Scene struct {
	Camera  *Camera
	Lights  []Light
	Objects []*Object
	Stats   Stats
}

// New creates a scene viewed through cam.
func New(cam *Camera) *Scene {
	return &Scene{Camera: cam}
}

// Add appends objects to the scene.
func (s *Scene) Add(objs ...*Object) {
	s.Objects = append(s.Objects, objs...)
}

// AddLight appends world-space lights. Each is bound to its slot at the
// start of every Render.
func (s *Scene) AddLight(lights ...Light) {
	s.Lights = append(s.Lights, lights...)
}

// Find returns the first object named name, or nil.
func (s *Scene) Find(name string) *Object {
	for _, o := range s.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Render loads the camera into r and draws every visible object whose
// world bounds intersect the view frustum.
func (s *Scene) Render(r *pipeline.Renderer) error {
	s.Stats = Stats{}
	s.Camera.Apply(r)
	frustum := s.Camera.Frustum()

	r.SetObjectTransformation(math3d.Identity())
	for _, l := range s.Lights {
		if err := l.apply(r); err != nil {
			return fmt.Errorf("light %q: %w", l.Name, err)
		}
	}

	for _, o := range s.Objects {
		if o.Hidden {
			continue
		}
		s.Stats.Tested++
		if !frustum.IntersectsAABB(o.Bounds.Transform(o.Transform)) {
			s.Stats.Culled++
			continue
		}

		r.SetObjectTransformation(o.Transform)
		if o.Material != nil {
			r.SetMaterial(*o.Material)
		}
		if err := r.SelectTexture(o.Texture); err != nil {
			return fmt.Errorf("object %q: %w", o.Name, err)
		}
		for _, b := range o.Batches {
			if err := r.Draw(b); err != nil {
				return fmt.Errorf("object %q: %w", o.Name, err)
			}
		}
		s.Stats.Drawn++
	}
	return nil
}

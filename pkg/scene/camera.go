// Package scene holds the collaborators that drive a pipeline from outside:
// a camera producing the view and projection matrices, and a flat list of
// objects that are rejected as a whole when their bounds leave the view
// frustum. It never clips individual primitives.
package scene

import (
	"math"

	"github.com/taigrr/scanline/pkg/math3d"
)

// Target receives the camera's matrices. *pipeline.Renderer implements it.
type Target interface {
	LoadProjection(m math3d.Mat4)
	SetCameraTransformation(m math3d.Mat4)
}

// Camera is a perspective camera with Euler orientation. Matrices are
// cached and rebuilt only after a setter runs.
type Camera struct {
	Position math3d.Vec3

	Pitch float64 // around X, radians
	Yaw   float64 // around Y, radians
	Roll  float64 // around Z, radians

	FOV         float64 // vertical, radians
	AspectRatio float64
	Near        float64 // positive distance along -Z
	Far         float64

	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	viewDirty      bool
	projDirty      bool
	vpDirty        bool
}

// NewCamera returns a camera at (0, 0, 5) looking down -Z.
func NewCamera() *Camera {
	return &Camera{
		Position:    math3d.V3(0, 0, 5),
		FOV:         math.Pi / 3,
		AspectRatio: 1,
		Near:        0.1,
		Far:         100,
		viewDirty:   true,
		projDirty:   true,
		vpDirty:     true,
	}
}

// SetPosition moves the camera.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.markView()
}

// SetRotation sets pitch, yaw and roll in radians.
func (c *Camera) SetRotation(pitch, yaw, roll float64) {
	c.Pitch, c.Yaw, c.Roll = pitch, yaw, roll
	c.markView()
}

// SetFOV sets the vertical field of view in radians.
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.markProj()
}

// SetAspectRatio sets width over height.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.markProj()
}

// SetClipPlanes sets the near and far distances. The pipeline discards any
// primitive with a vertex outside this range.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near, c.Far = near, far
	c.markProj()
}

func (c *Camera) markView() {
	c.viewDirty = true
	c.vpDirty = true
}

func (c *Camera) markProj() {
	c.projDirty = true
	c.vpDirty = true
}

// Forward returns the unit view direction in world space.
func (c *Camera) Forward() math3d.Vec3 {
	return math3d.V3(
		-math.Sin(c.Yaw)*math.Cos(c.Pitch),
		math.Sin(c.Pitch),
		-math.Cos(c.Yaw)*math.Cos(c.Pitch),
	)
}

// Right returns the unit right vector in world space.
func (c *Camera) Right() math3d.Vec3 {
	return math3d.V3(math.Cos(c.Yaw), 0, -math.Sin(c.Yaw))
}

// Orbit places the camera on a sphere around target and points it there.
func (c *Camera) Orbit(target math3d.Vec3, distance, yaw, pitch float64) {
	offset := math3d.V3(
		math.Sin(yaw)*math.Cos(pitch),
		math.Sin(pitch),
		math.Cos(yaw)*math.Cos(pitch),
	).Scale(distance)
	c.Position = target.Add(offset)
	c.LookAt(target)
}

// LookAt turns the camera toward target. Roll is reset.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position).Normalize()
	c.Pitch = math.Asin(dir.Y)
	c.Yaw = math.Atan2(-dir.X, -dir.Z)
	c.Roll = 0
	c.markView()
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		rot := math3d.RotateZ(-c.Roll).Mul(math3d.RotateX(-c.Pitch)).Mul(math3d.RotateY(-c.Yaw))
		c.viewMatrix = rot.Mul(math3d.Translate(c.Position.Negate()))
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the perspective projection.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns projection times view.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	if c.vpDirty {
		c.viewProjMatrix = c.ProjectionMatrix().Mul(c.ViewMatrix())
		c.vpDirty = false
	}
	return c.viewProjMatrix
}

// Frustum returns the world-space view frustum.
func (c *Camera) Frustum() Frustum {
	return NewFrustum(c.ViewProjectionMatrix())
}

// Apply loads the projection and the camera half of the model-view into t.
func (c *Camera) Apply(t Target) {
	t.LoadProjection(c.ProjectionMatrix())
	t.SetCameraTransformation(c.ViewMatrix())
}

package main

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/taigrr/scanline/pkg/math3d"
)

// RotationAxis is one rotation angle whose velocity decays on a spring.
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // spring velocity of Velocity itself
}

// NewRotationAxis creates a critically damped axis for the given tick rate.
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update advances the angle by one tick and eases Velocity towards zero.
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// RotationState spins the model about three axes.
type RotationState struct {
	Pitch, Yaw, Roll RotationAxis
	fps              int
}

// NewRotationState returns a model at rest with springs tuned for fps.
func NewRotationState(fps int) *RotationState {
	return &RotationState{
		Pitch: NewRotationAxis(fps),
		Yaw:   NewRotationAxis(fps),
		Roll:  NewRotationAxis(fps),
		fps:   fps,
	}
}

// Update advances every axis by one frame.
func (r *RotationState) Update() {
	r.Pitch.Update()
	r.Yaw.Update()
	r.Roll.Update()
}

// ApplyImpulse adds angular velocity to each axis.
func (r *RotationState) ApplyImpulse(pitch, yaw, roll float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
	r.Roll.Velocity += roll
}

// Reset stops the model and returns it to its initial orientation.
func (r *RotationState) Reset() {
	r.Pitch = NewRotationAxis(r.fps)
	r.Yaw = NewRotationAxis(r.fps)
	r.Roll = NewRotationAxis(r.fps)
}

// Matrix returns the model rotation, pitch applied last.
func (r *RotationState) Matrix() math3d.Mat4 {
	return math3d.RotateX(r.Pitch.Position).
		Mul(math3d.RotateY(r.Yaw.Position)).
		Mul(math3d.RotateZ(r.Roll.Position))
}

const (
	minDistance = 1.0
	maxDistance = 20.0
)

// Zoom is the camera distance. It starts with an eased fly-in, after which
// a spring follows the distance the user asks for.
type Zoom struct {
	intro    *gween.Tween
	spring   harmonica.Spring
	vel      float64
	distance float64
	target   float64
	rest     float64
}

// NewZoom flies in from far to near over dur seconds.
func NewZoom(fps int, far, near, dur float64) *Zoom {
	z := &Zoom{
		spring:   harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
		distance: far,
		target:   near,
		rest:     near,
	}
	if dur > 0 {
		z.intro = gween.New(float32(far), float32(near), float32(dur), ease.OutCubic)
	} else {
		z.distance = near
	}
	return z
}

// Update advances the zoom by dt seconds and returns the distance.
func (z *Zoom) Update(dt float64) float64 {
	if z.intro != nil {
		d, done := z.intro.Update(float32(dt))
		z.distance = float64(d)
		if done {
			z.intro = nil
		}
		return z.distance
	}
	z.distance, z.vel = z.spring.Update(z.distance, z.vel, z.target)
	return z.distance
}

// Step moves the target by delta, clamped to the allowed range. It ends the
// intro early.
func (z *Zoom) Step(delta float64) {
	z.intro = nil
	z.target = math.Max(minDistance, math.Min(maxDistance, z.target+delta))
}

// Set jumps to d with no animation.
func (z *Zoom) Set(d float64) {
	z.intro = nil
	z.distance, z.target, z.vel = d, d, 0
}

// Reset returns to the distance the intro ends at.
func (z *Zoom) Reset() { z.Set(z.rest) }

// Distance is the current distance.
func (z *Zoom) Distance() float64 { return z.distance }

// Intro reports whether the fly-in is still running.
func (z *Zoom) Intro() bool { return z.intro != nil }

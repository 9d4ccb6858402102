package scene

import (
	"github.com/taigrr/scanline/pkg/math3d"
)

// Plane is Normal·p + D = 0.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize scales the plane so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1 / l)
	p.D /= l
}

// Distance returns the signed distance from the plane to point. Positive
// is on the normal's side.
func (p Plane) Distance(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Plane indices within a Frustum.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// Frustum is six inward-facing planes.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustum extracts the planes of a view-projection matrix (Gribb and
// Hartmann). Row i, column j of the column-major m is m[i+j*4].
func NewFrustum(m math3d.Mat4) Frustum {
	row := func(i int) (float64, float64, float64, float64) {
		return m[i], m[i+4], m[i+8], m[i+12]
	}
	x0, y0, z0, w0 := row(0)
	x1, y1, z1, w1 := row(1)
	x2, y2, z2, w2 := row(2)
	x3, y3, z3, w3 := row(3)

	f := Frustum{Planes: [6]Plane{
		FrustumLeft:   {math3d.V3(x3+x0, y3+y0, z3+z0), w3 + w0},
		FrustumRight:  {math3d.V3(x3-x0, y3-y0, z3-z0), w3 - w0},
		FrustumBottom: {math3d.V3(x3+x1, y3+y1, z3+z1), w3 + w1},
		FrustumTop:    {math3d.V3(x3-x1, y3-y1, z3-z1), w3 - w1},
		FrustumNear:   {math3d.V3(x3+x2, y3+y2, z3+z2), w3 + w2},
		FrustumFar:    {math3d.V3(x3-x2, y3-y2, z3-z2), w3 - w2},
	}}
	for i := range f.Planes {
		f.Planes[i].Normalize()
	}
	return f
}

// ContainsPoint reports whether p is inside every plane.
func (f Frustum) ContainsPoint(p math3d.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].Distance(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsAABB reports whether any part of box may be inside. It tests the
// corner furthest along each plane normal, so it can accept boxes near a
// frustum corner that are actually outside, but never rejects a visible one.
func (f Frustum) IntersectsAABB(box AABB) bool {
	for i := range f.Planes {
		n := f.Planes[i].Normal
		p := math3d.V3(
			pick(n.X >= 0, box.Max.X, box.Min.X),
			pick(n.Y >= 0, box.Max.Y, box.Min.Y),
			pick(n.Z >= 0, box.Max.Z, box.Min.Z),
		)
		if f.Planes[i].Distance(p) < 0 {
			return false
		}
	}
	return true
}

// ContainsAABB reports whether box is entirely inside.
func (f Frustum) ContainsAABB(box AABB) bool {
	for i := range f.Planes {
		n := f.Planes[i].Normal
		p := math3d.V3(
			pick(n.X >= 0, box.Min.X, box.Max.X),
			pick(n.Y >= 0, box.Min.Y, box.Max.Y),
			pick(n.Z >= 0, box.Min.Z, box.Max.Z),
		)
		if f.Planes[i].Distance(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether a sphere may be inside.
func (f Frustum) IntersectsSphere(center math3d.Vec3, radius float64) bool {
	for i := range f.Planes {
		if f.Planes[i].Distance(center) < -radius {
			return false
		}
	}
	return true
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max math3d.Vec3
}

// BoundsOf returns the box enclosing points. An empty slice gives the zero
// box.
func BoundsOf(points []math3d.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	b := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// Center returns the midpoint of the box.
func (b AABB) Center() math3d.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the edge lengths.
func (b AABB) Size() math3d.Vec3 {
	return b.Max.Sub(b.Min)
}

// Radius returns half the diagonal.
func (b AABB) Radius() float64 {
	return b.Size().Len() / 2
}

// ContainsPoint reports whether p is inside or on the box.
func (b AABB) ContainsPoint(p math3d.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Transform returns the box enclosing all eight corners of b after an
// affine transform.
func (b AABB) Transform(m math3d.Mat4) AABB {
	var out AABB
	for i := range 8 {
		c := math3d.V3(
			pick(i&1 != 0, b.Max.X, b.Min.X),
			pick(i&2 != 0, b.Max.Y, b.Min.Y),
			pick(i&4 != 0, b.Max.Z, b.Min.Z),
		)
		p := m.MulPoint(c).Vec3()
		if i == 0 {
			out = AABB{Min: p, Max: p}
			continue
		}
		out.Min = out.Min.Min(p)
		out.Max = out.Max.Max(p)
	}
	return out
}

package math3d

// Vec2 is a 2D vector, used for texture coordinates.
type Vec2 struct {
	X, Y float64
}

// V2 creates a new Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}

// U returns the horizontal texture coordinate.
func (v Vec2) U() float64 { return v.X }

// V returns the vertical texture coordinate.
func (v Vec2) V() float64 { return v.Y }

// Lerp returns the linear interpolation between a and b.
func (a Vec2) Lerp(b Vec2, t float64) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

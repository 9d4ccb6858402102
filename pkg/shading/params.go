package shading

import (
	"errors"
	"fmt"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
)

// ErrLightParam is returned when a parameter gets the wrong number of
// values or an unknown kind.
var ErrLightParam = errors.New("shading: invalid light parameter")

// Param names a light property settable through SetParam.
type Param int

const (
	Ambient       Param = iota // RGBA
	Diffuse                    // RGBA
	Specular                   // RGBA
	Position                   // x, y, z[, w], transformed by the model-view; w = 0 is directional
	SpotDirection              // x, y, z, transformed by the model-view
	SpotCutoff                 // degrees
	SpotExponent
	ConstantAttenuation
	LinearAttenuation
	QuadraticAttenuation
)

var paramNames = [...]string{
	Ambient:              "ambient",
	Diffuse:              "diffuse",
	Specular:             "specular",
	Position:             "position",
	SpotDirection:        "spot-direction",
	SpotCutoff:           "spot-cutoff",
	SpotExponent:         "spot-exponent",
	ConstantAttenuation:  "constant-attenuation",
	LinearAttenuation:    "linear-attenuation",
	QuadraticAttenuation: "quadratic-attenuation",
}

func (p Param) String() string {
	if p < 0 || int(p) >= len(paramNames) {
		return fmt.Sprintf("param(%d)", int(p))
	}
	return paramNames[p]
}

// ParseParam maps a parameter name as returned by String back to its kind.
func ParseParam(s string) (Param, error) {
	for i, name := range paramNames {
		if name == s {
			return Param(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrLightParam, s)
}

// arity returns the accepted value counts for p.
func (p Param) arity() (lo, hi int) {
	switch p {
	case Ambient, Diffuse, Specular:
		return 3, 4
	case Position:
		return 3, 4
	case SpotDirection:
		return 3, 3
	case SpotCutoff, SpotExponent, ConstantAttenuation, LinearAttenuation, QuadraticAttenuation:
		return 1, 1
	}
	return 0, -1
}

// SetParam updates one light property. Position and spot direction are
// taken in model coordinates and moved to view space with modelView, so a
// light set under a camera transform stays fixed in the world.
func (l *Light) SetParam(p Param, values []float64, modelView math3d.Mat4) error {
	lo, hi := p.arity()
	if len(values) < lo || len(values) > hi {
		return fmt.Errorf("%w: %v takes %d to %d values, got %d", ErrLightParam, p, lo, hi, len(values))
	}

	switch p {
	case Ambient:
		l.Ambient = colorOf(values)
	case Diffuse:
		l.Diffuse = colorOf(values)
	case Specular:
		l.Specular = colorOf(values)
	case Position:
		pos := math3d.V4(values[0], values[1], values[2], 1)
		if len(values) == 4 {
			pos.W = values[3]
		}
		l.Position = modelView.MulVec4(pos).Vec3()
		l.Directional = pos.W == 0
	case SpotDirection:
		l.SpotDirection = modelView.MulDir(math3d.V3(values[0], values[1], values[2])).Normalize()
	case SpotCutoff:
		l.SetCutoff(values[0])
	case SpotExponent:
		l.SpotExponent = values[0]
	case ConstantAttenuation:
		l.ConstantAttenuation = values[0]
	case LinearAttenuation:
		l.LinearAttenuation = values[0]
	case QuadraticAttenuation:
		l.QuadraticAttenuation = values[0]
	}
	return nil
}

func colorOf(v []float64) render.Color {
	c := render.RGB(v[0], v[1], v[2])
	if len(v) == 4 {
		c.A = v[3]
	}
	return c
}

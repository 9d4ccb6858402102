package scene

import (
	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/pipeline"
	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/shading"
)

// Light is a world-space light bound to a renderer slot on every Render.
type Light struct {
	Name        string
	Slot        int
	Directional bool        // Position is a direction towards the light
	Position    math3d.Vec3 // world space
	Ambient     render.Color
	Diffuse     render.Color
	Specular    render.Color

	// Attenuation terms. A zero Constant is treated as 1.
	Constant, Linear, Quadratic float64

	// Spot cone. A zero cutoff means no cone.
	SpotDirection math3d.Vec3 // world space
	SpotCutoff    float64     // degrees
	SpotExponent  float64
}

// PointLight returns a white light at pos with no falloff.
func PointLight(slot int, pos math3d.Vec3) Light {
	return Light{
		Slot:     slot,
		Position: pos,
		Diffuse:  render.White,
		Specular: render.White,
		Constant: 1,
	}
}

// DirectionalLight returns a white light shining from dir.
func DirectionalLight(slot int, dir math3d.Vec3) Light {
	l := PointLight(slot, dir.Normalize())
	l.Directional = true
	return l
}

func colorParam(c render.Color) []float64 {
	return []float64{c.R, c.G, c.B, c.A}
}

type lightParam struct {
	p shading.Param
	v []float64
}

// apply loads the light into its slot. The renderer's object transform
// must be identity so positions go through the camera only.
func (l Light) apply(r *pipeline.Renderer) error {
	w := 1.0
	if l.Directional {
		w = 0
	}
	kc := l.Constant
	if kc == 0 {
		kc = 1
	}
	cutoff := l.SpotCutoff
	if cutoff == 0 {
		cutoff = 180
	}
	params := []lightParam{
		{shading.Position, []float64{l.Position.X, l.Position.Y, l.Position.Z, w}},
		{shading.Ambient, colorParam(l.Ambient)},
		{shading.Diffuse, colorParam(l.Diffuse)},
		{shading.Specular, colorParam(l.Specular)},
		{shading.ConstantAttenuation, []float64{kc}},
		{shading.LinearAttenuation, []float64{l.Linear}},
		{shading.QuadraticAttenuation, []float64{l.Quadratic}},
		{shading.SpotCutoff, []float64{cutoff}},
		{shading.SpotExponent, []float64{l.SpotExponent}},
	}
	if d := l.SpotDirection; d != (math3d.Vec3{}) {
		params = append(params, lightParam{shading.SpotDirection, []float64{d.X, d.Y, d.Z}})
	}
	for _, p := range params {
		if err := r.SetLightParam(p.p, p.v, l.Slot); err != nil {
			return err
		}
	}
	return r.EnableLight(l.Slot)
}

// Package shading computes per-vertex lighting: an emission plus global
// ambient term, then ambient, diffuse and specular contributions from each
// enabled light, attenuated by distance and restricted by spot cones.
//
// All lighting state lives in a Context value owned by the caller. Nothing
// here is global, so two pipelines can shade concurrently.
package shading

import (
	"math"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
)

// DefaultMaxLights is the light count used when none is configured.
const DefaultMaxLights = 8

// Light is a positional light in view space.
type Light struct {
	Ambient  render.Color
	Diffuse  render.Color
	Specular render.Color

	Position      math3d.Vec3 // view space
	Directional   bool        // Position is a direction towards the light
	SpotDirection math3d.Vec3 // view space, unit length
	SpotCutoff    float64     // degrees; 180 disables the cone
	SpotExponent  float64

	ConstantAttenuation  float64
	LinearAttenuation    float64
	QuadraticAttenuation float64

	Enabled bool

	cosCutoff float64
}

// DefaultLight returns a white point light at the view-space origin.
func DefaultLight() Light {
	l := Light{
		Ambient:             render.RGB(0.2, 0.2, 0.2),
		Diffuse:             render.RGB(0.8, 0.8, 0.8),
		Specular:            render.RGBA(0, 0, 0, 0),
		SpotDirection:       math3d.ViewDir(),
		SpotExponent:        1,
		ConstantAttenuation: 1,
		Enabled:             true,
	}
	l.SetCutoff(180)
	return l
}

// SetCutoff sets the spot cone half angle in degrees.
func (l *Light) SetCutoff(deg float64) {
	l.SpotCutoff = deg
	l.cosCutoff = math.Cos(deg * math.Pi / 180)
}

// IsSpot reports whether the light is restricted to a cone.
func (l *Light) IsSpot() bool {
	return l.SpotCutoff != 180
}

// attenuation is 1/(Kc + Kl*d + Kq*d^2), or 0 when the denominator is not
// positive.
func (l *Light) attenuation(d float64) float64 {
	den := l.ConstantAttenuation + l.LinearAttenuation*d + l.QuadraticAttenuation*d*d
	if !(den > 0) {
		return 0
	}
	return 1 / den
}

// spot returns the cone factor for the unit direction from the light to
// the vertex: 1 for point lights, 0 outside the cone, cos^exp inside.
func (l *Light) spot(toVertex math3d.Vec3) float64 {
	if !l.IsSpot() {
		return 1
	}
	s := toVertex.Dot(l.SpotDirection)
	if s < 0 || s < l.cosCutoff {
		return 0
	}
	if l.SpotExponent == 1 {
		return s
	}
	return math.Pow(s, l.SpotExponent)
}

// Material holds the surface terms the lighting equation reads.
type Material struct {
	Emission  render.Color
	Ambient   render.Color
	Diffuse   render.Color
	Specular  render.Color
	Shininess float64

	// Apply selects these terms. When false the neutral material is used:
	// white ambient, diffuse and specular with no emission.
	Apply bool
}

// DefaultMaterial returns the terms in effect before any material is set.
func DefaultMaterial() Material {
	return Material{
		Emission: render.RGBA(0, 0, 0, 1),
		Ambient:  render.RGBA(0, 0, 0, 1),
		Diffuse:  render.White,
		Specular: render.RGBA(0, 0, 0, 1),
		Apply:    true,
	}
}

// AmbientAndDiffuse returns m with both ambient and diffuse set to c.
func (m Material) AmbientAndDiffuse(c render.Color) Material {
	m.Ambient = c
	m.Diffuse = c
	return m
}

func (m *Material) terms() Material {
	if m.Apply {
		return *m
	}
	return Material{
		Emission:  render.RGBA(0, 0, 0, 1),
		Ambient:   render.White,
		Diffuse:   render.White,
		Specular:  render.White,
		Shininess: m.Shininess,
	}
}

// Context is the lighting state for one pipeline: the light slots, the
// global ambient color and the bound material.
type Context struct {
	Lights        []Light
	GlobalAmbient render.Color
	Material      Material
}

// NewContext creates a context with maxLights slots. Only light 0 starts
// enabled.
func NewContext(maxLights int) *Context {
	maxLights = max(maxLights, 1)
	c := &Context{
		Lights:        make([]Light, maxLights),
		GlobalAmbient: render.RGB(0.2, 0.2, 0.2),
		Material:      DefaultMaterial(),
	}
	for i := range c.Lights {
		c.Lights[i] = DefaultLight()
		c.Lights[i].Enabled = i == 0
	}
	return c
}

// Light returns the light in slot n, or nil when n is out of range.
func (c *Context) Light(n int) *Light {
	if n < 0 || n >= len(c.Lights) {
		return nil
	}
	return &c.Lights[n]
}

// Apply lights a view-space vertex v with unit normal n. The RGB channels
// of the result replace those of in; alpha passes through. Channels are
// clamped to [0, 1].
func (c *Context) Apply(v, n math3d.Vec3, in render.Color) render.Color {
	m := c.Material.terms()

	r := m.Emission.R + m.Ambient.R*c.GlobalAmbient.R
	g := m.Emission.G + m.Ambient.G*c.GlobalAmbient.G
	b := m.Emission.B + m.Ambient.B*c.GlobalAmbient.B

	for i := range c.Lights {
		l := &c.Lights[i]
		if !l.Enabled {
			continue
		}

		var dist float64
		dir := l.Position.Normalize()
		if !l.Directional {
			d := l.Position.Sub(v)
			dist = d.Len()
			dir = d.Normalize()
		}

		k := l.attenuation(dist) * l.spot(dir.Negate())
		if k == 0 {
			continue
		}

		diff := max(dir.Dot(n), 0)

		var spec float64
		if diff != 0 {
			// Half vector against a viewer looking down -Z.
			h := dir.Add(math3d.V3(0, 0, 1)).Normalize()
			spec = max(h.Dot(n), 0)
			if m.Shininess > 0 {
				spec = math.Pow(spec, m.Shininess)
			}
		}

		r += k * (m.Ambient.R*l.Ambient.R + diff*m.Diffuse.R*l.Diffuse.R + spec*m.Specular.R*l.Specular.R)
		g += k * (m.Ambient.G*l.Ambient.G + diff*m.Diffuse.G*l.Diffuse.G + spec*m.Specular.G*l.Specular.G)
		b += k * (m.Ambient.B*l.Ambient.B + diff*m.Diffuse.B*l.Diffuse.B + spec*m.Specular.B*l.Specular.B)
	}

	return render.Color{R: r, G: g, B: b, A: in.A}.Clamp()
}

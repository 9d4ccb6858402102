package shading

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

// singleLight returns a context with one white diffuse light at pos and no
// ambient contribution anywhere.
func singleLight(pos math3d.Vec3) *Context {
	c := NewContext(1)
	c.GlobalAmbient = render.RGB(0, 0, 0)
	c.Material = DefaultMaterial()
	l := c.Light(0)
	l.Ambient = render.RGB(0, 0, 0)
	l.Diffuse = render.RGB(1, 1, 1)
	l.Position = pos
	return c
}

func TestNewContext(t *testing.T) {
	c := NewContext(0)
	if len(c.Lights) != 1 {
		t.Fatalf("NewContext(0) has %d lights, want 1", len(c.Lights))
	}

	c = NewContext(DefaultMaxLights)
	for i, l := range c.Lights {
		if l.Enabled != (i == 0) {
			t.Errorf("light %d enabled = %v", i, l.Enabled)
		}
	}
	if c.Light(DefaultMaxLights) != nil || c.Light(-1) != nil {
		t.Error("Light() out of range should be nil")
	}
}

func TestDiffuseSaturates(t *testing.T) {
	tests := []struct {
		name       string
		lightDiff  float64
		matDiffuse float64
		want       float64
	}{
		{"unit", 1, 1, 1},
		{"clamped", 2, 1, 1},
		{"half material", 1, 0.5, 0.5},
		{"dim light", 0.25, 1, 0.25},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := singleLight(math3d.V3(0, 0, 5))
			c.Light(0).Diffuse = render.RGB(tc.lightDiff, tc.lightDiff, tc.lightDiff)
			c.Material.Diffuse = render.RGB(tc.matDiffuse, tc.matDiffuse, tc.matDiffuse)

			got := c.Apply(math3d.Zero3(), math3d.V3(0, 0, 1), render.Black)
			if !near(got.R, tc.want) || !near(got.G, tc.want) || !near(got.B, tc.want) {
				t.Errorf("Apply() = %+v, want %v per channel", got, tc.want)
			}
		})
	}
}

func TestIndependentTerm(t *testing.T) {
	c := NewContext(2)
	c.Lights[0].Enabled = false
	c.GlobalAmbient = render.RGB(0.2, 0.4, 1)
	c.Material.Emission = render.RGB(0.1, 0, 0)
	c.Material.Ambient = render.RGB(0.5, 0.5, 0.5)

	got := c.Apply(math3d.Zero3(), math3d.V3(0, 0, 1), render.White)
	if !near(got.R, 0.2) || !near(got.G, 0.2) || !near(got.B, 0.5) {
		t.Errorf("Apply() = %+v, want (0.2, 0.2, 0.5)", got)
	}
}

func TestNeutralMaterial(t *testing.T) {
	c := NewContext(1)
	c.Lights[0].Enabled = false
	c.Material.Apply = false
	c.Material.Emission = render.RGB(1, 1, 1)

	got := c.Apply(math3d.Zero3(), math3d.V3(0, 0, 1), render.White)
	if !near(got.R, 0.2) {
		t.Errorf("R = %v, want 0.2 from white ambient times global ambient", got.R)
	}
}

func TestNormalFacingAway(t *testing.T) {
	c := singleLight(math3d.V3(0, 0, 5))
	c.Light(0).Ambient = render.RGB(0.3, 0.3, 0.3)
	c.Light(0).Specular = render.White
	c.Material.Ambient = render.White
	c.Material.Specular = render.White

	got := c.Apply(math3d.Zero3(), math3d.V3(0, 0, -1), render.Black)
	if !near(got.R, 0.3) {
		t.Errorf("R = %v, want only the light ambient 0.3", got.R)
	}
}

func TestAttenuation(t *testing.T) {
	tests := []struct {
		name       string
		kc, kl, kq float64
		want       float64
	}{
		{"constant", 1, 0, 0, 1},
		{"linear", 1, 1, 0, 0.2},
		{"quadratic", 0, 0, 1, 1.0 / 16},
		{"zero denominator", 0, 0, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := singleLight(math3d.V3(0, 0, 4))
			l := c.Light(0)
			l.ConstantAttenuation, l.LinearAttenuation, l.QuadraticAttenuation = tc.kc, tc.kl, tc.kq

			got := c.Apply(math3d.Zero3(), math3d.V3(0, 0, 1), render.Black)
			if !near(got.R, tc.want) {
				t.Errorf("R = %v, want %v", got.R, tc.want)
			}
		})
	}
}

func TestZeroAttenuationAtLight(t *testing.T) {
	pos := math3d.V3(0, 0, -1)
	c := singleLight(pos)
	l := c.Light(0)
	l.ConstantAttenuation, l.LinearAttenuation, l.QuadraticAttenuation = 0, 1, 0

	for _, v := range []math3d.Vec3{pos, math3d.Zero3()} {
		got := c.Apply(v, math3d.V3(0, 0, 1), render.White)
		if math.IsNaN(got.R) || math.IsNaN(got.G) || math.IsNaN(got.B) {
			t.Errorf("Apply at %+v = %+v, want finite channels", v, got)
		}
	}
}

func TestSpotCone(t *testing.T) {
	pos := math3d.V3(0, 0, 5)
	n := math3d.V3(0, 0, 1)

	tests := []struct {
		name   string
		vertex math3d.Vec3
		exp    float64
		want   float64
	}{
		{"on axis", math3d.Zero3(), 1, 1},
		{"outside cone", math3d.V3(10, 0, 0), 1, 0},
		{"inside cone with exponent", math3d.V3(1, 0, 0), 2, math.Pow(5/math.Sqrt(26), 3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := singleLight(pos)
			l := c.Light(0)
			l.SpotDirection = math3d.V3(0, 0, -1)
			l.SpotExponent = tc.exp
			l.SetCutoff(30)

			got := c.Apply(tc.vertex, n, render.Black)
			if !near(got.R, tc.want) {
				t.Errorf("R = %v, want %v", got.R, tc.want)
			}
		})
	}
}

func TestSpecular(t *testing.T) {
	c := singleLight(math3d.V3(0, 0, 5))
	c.Light(0).Specular = render.White
	c.Material.Diffuse = render.RGB(0, 0, 0)
	c.Material.Specular = render.RGB(1, 0.5, 0)
	c.Material.Shininess = 8

	got := c.Apply(math3d.Zero3(), math3d.V3(0, 0, 1), render.Black)
	if !near(got.R, 1) || !near(got.G, 0.5) || !near(got.B, 0) {
		t.Errorf("Apply() = %+v, want (1, 0.5, 0)", got)
	}

	// Off the reflection axis the highlight falls off with shininess.
	got = c.Apply(math3d.V3(3, 0, 0), math3d.V3(0, 0, 1), render.Black)
	if got.R <= 0 || got.R >= 1 {
		t.Errorf("off-axis specular R = %v, want in (0, 1)", got.R)
	}
}

func TestAlphaPassthrough(t *testing.T) {
	c := singleLight(math3d.V3(0, 0, 5))
	got := c.Apply(math3d.Zero3(), math3d.V3(0, 0, 1), render.RGBA(0, 0, 0, 0.25))
	if got.A != 0.25 {
		t.Errorf("A = %v, want 0.25", got.A)
	}
}

func TestSetParam(t *testing.T) {
	mv := math3d.Translate(math3d.V3(0, 0, -10))

	tests := []struct {
		name    string
		p       Param
		values  []float64
		wantErr bool
		check   func(t *testing.T, l *Light)
	}{
		{"diffuse rgba", Diffuse, []float64{0.1, 0.2, 0.3, 0.4}, false, func(t *testing.T, l *Light) {
			if l.Diffuse != render.RGBA(0.1, 0.2, 0.3, 0.4) {
				t.Errorf("Diffuse = %+v", l.Diffuse)
			}
		}},
		{"position moved to view space", Position, []float64{1, 2, 3}, false, func(t *testing.T, l *Light) {
			if l.Position != math3d.V3(1, 2, -7) {
				t.Errorf("Position = %+v, want (1, 2, -7)", l.Position)
			}
		}},
		{"w of zero is directional", Position, []float64{0, 0, 1, 0}, false, func(t *testing.T, l *Light) {
			if !l.Directional || l.Position != math3d.V3(0, 0, 1) {
				t.Errorf("Position = %+v directional=%v, want (0, 0, 1) directional", l.Position, l.Directional)
			}
		}},
		{"direction ignores translation", SpotDirection, []float64{0, 0, -4}, false, func(t *testing.T, l *Light) {
			if l.SpotDirection != math3d.V3(0, 0, -1) {
				t.Errorf("SpotDirection = %+v, want (0, 0, -1)", l.SpotDirection)
			}
		}},
		{"cutoff", SpotCutoff, []float64{60}, false, func(t *testing.T, l *Light) {
			if !l.IsSpot() || math.Abs(l.cosCutoff-0.5) > 1e-12 {
				t.Errorf("cutoff not applied: %v", l.cosCutoff)
			}
		}},
		{"linear attenuation", LinearAttenuation, []float64{0.5}, false, func(t *testing.T, l *Light) {
			if l.LinearAttenuation != 0.5 {
				t.Errorf("LinearAttenuation = %v", l.LinearAttenuation)
			}
		}},
		{"too few values", Ambient, []float64{1}, true, nil},
		{"scalar with vector", SpotExponent, []float64{1, 2}, true, nil},
		{"unknown kind", Param(99), []float64{1}, true, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := DefaultLight()
			err := l.SetParam(tc.p, tc.values, mv)
			if tc.wantErr {
				if !errors.Is(err, ErrLightParam) {
					t.Fatalf("SetParam() error = %v, want ErrLightParam", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetParam() error = %v", err)
			}
			tc.check(t, &l)
		})
	}
}

func TestParseParam(t *testing.T) {
	for p := Ambient; p <= QuadraticAttenuation; p++ {
		got, err := ParseParam(p.String())
		if err != nil || got != p {
			t.Errorf("ParseParam(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParseParam("glow"); !errors.Is(err, ErrLightParam) {
		t.Errorf("ParseParam(glow) error = %v, want ErrLightParam", err)
	}
}

func BenchmarkApply(b *testing.B) {
	c := NewContext(DefaultMaxLights)
	for i := range c.Lights {
		c.Lights[i].Enabled = true
		c.Lights[i].Position = math3d.V3(float64(i), 2, 3)
		c.Lights[i].Specular = render.White
	}
	c.Material.Specular = render.White
	c.Material.Shininess = 16
	v, n := math3d.V3(0.5, 0.5, -2), math3d.V3(0, 0, 1)

	for b.Loop() {
		c.Apply(v, n, render.White)
	}
}

func TestDirectionalLightIgnoresDistance(t *testing.T) {
	c := NewContext(1)
	l := c.Light(0)
	l.Position = math3d.V3(0, 0, 1)
	l.Directional = true
	l.Ambient = render.Black
	l.LinearAttenuation = 1

	n := math3d.V3(0, 0, 1)
	near := c.Apply(math3d.V3(0, 0, -1), n, render.White)
	far := c.Apply(math3d.V3(5, 5, -50), n, render.White)
	if near != far {
		t.Errorf("near = %+v, far = %+v, want equal", near, far)
	}
	if math.Abs(near.R-0.8) > 1e-9 {
		t.Errorf("R = %v, want 0.8", near.R)
	}
}

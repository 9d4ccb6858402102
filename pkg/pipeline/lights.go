package pipeline

import (
	"fmt"

	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/shading"
)

// MaxLights returns the number of light slots.
func (r *Renderer) MaxLights() int { return len(r.light.Lights) }

func (r *Renderer) lightAt(n int) (*shading.Light, error) {
	l := r.light.Light(n)
	if l == nil {
		render.Logger().Warn("light index out of range", "index", n, "max", r.MaxLights())
		return nil, fmt.Errorf("%w: %d (max %d)", ErrLightIndex, n, r.MaxLights())
	}
	return l, nil
}

// SetLightParam sets one property of light n. Positions and spot
// directions are transformed by the current model-view.
func (r *Renderer) SetLightParam(p shading.Param, values []float64, n int) error {
	l, err := r.lightAt(n)
	if err != nil {
		return err
	}
	return l.SetParam(p, values, r.modelView)
}

// EnableLight switches light n on.
func (r *Renderer) EnableLight(n int) error {
	l, err := r.lightAt(n)
	if err != nil {
		return err
	}
	l.Enabled = true
	return nil
}

// DisableLight switches light n off.
func (r *Renderer) DisableLight(n int) error {
	l, err := r.lightAt(n)
	if err != nil {
		return err
	}
	l.Enabled = false
	return nil
}

// SetGlobalAmbient sets the ambient color applied independently of lights.
func (r *Renderer) SetGlobalAmbient(c render.Color) {
	r.light.GlobalAmbient = c
}

// SetMaterial binds the material used by subsequent lit batches.
func (r *Renderer) SetMaterial(m shading.Material) {
	r.light.Material = m
}

// Material returns the bound material.
func (r *Renderer) Material() shading.Material {
	return r.light.Material
}

package pipeline

import (
	"errors"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/shading"
)

var (
	// ErrStreamLength is returned by Draw when a batch's streams do not
	// line up. Nothing is drawn.
	ErrStreamLength = errors.New("pipeline: stream length mismatch")
	// ErrLightIndex is returned for a light slot beyond MaxLights.
	ErrLightIndex = errors.New("pipeline: light index out of range")
	// ErrLightParam is returned for a malformed light parameter.
	ErrLightParam = shading.ErrLightParam
)

// Backend is what a scene traversal needs from a renderer: matrices,
// lights, textures and primitive submission.
type Backend interface {
	LoadProjection(m math3d.Mat4)
	LoadModelView(m math3d.Mat4)

	SetLightParam(p shading.Param, values []float64, n int) error
	EnableLight(n int) error
	DisableLight(n int) error

	CreateTexture(data []byte, format render.TextureFormat, width, height int) (int, error)
	SelectTexture(id int) error
	DeleteTexture(id int) error

	Draw(b *Batch) error
}

var _ Backend = (*Renderer)(nil)

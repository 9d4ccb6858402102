package pipeline

import (
	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/shading"
)

// CullFace selects which triangles the culler drops.
type CullFace int

const (
	CullBack  CullFace = iota // drop triangles facing away from the viewer
	CullFront                 // drop triangles facing the viewer
)

func (f CullFace) String() string {
	if f == CullFront {
		return "front"
	}
	return "back"
}

// Config holds the initial render state of a Renderer.
type Config struct {
	MaxLights   int                // light slots, at least 1
	DepthTest   bool               // z-buffering
	Texturing   bool               // texture sampling for triangles
	Lighting    bool               // per-vertex lighting
	Culling     bool               // backface culling
	CullFace    CullFace           // which faces culling drops
	ClearColor  render.Color       // color used by Clear
	TextureMode render.TextureMode // how texels combine with vertex colors
}

// DefaultConfig returns the state a renderer starts in when nothing else
// is configured.
func DefaultConfig() Config {
	return Config{
		MaxLights:   shading.DefaultMaxLights,
		DepthTest:   true,
		Texturing:   true,
		Lighting:    false,
		Culling:     true,
		CullFace:    CullBack,
		ClearColor:  render.Black,
		TextureMode: render.TextureModulate,
	}
}

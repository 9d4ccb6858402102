package pipeline

import (
	"fmt"
	"strings"
)

// Name identifies the backend in RenderInfo.
const Name = "scanline software renderer"

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// RenderInfo describes the backend and its current state, one item per
// line.
func (r *Renderer) RenderInfo() string {
	var sb strings.Builder
	sb.WriteString(Name + "\n")
	fmt.Fprintf(&sb, "viewport: %dx%d\n", r.viewW, r.viewH)
	fmt.Fprintf(&sb, "framebuffer: %dx%d\n", r.ctx.Width(), r.ctx.Height())
	fmt.Fprintf(&sb, "max lights: %d\n", r.MaxLights())
	fmt.Fprintf(&sb, "textures: %d\n", r.ctx.Textures().Len())
	fmt.Fprintf(&sb, "depth test: %s\n", onOff(r.ctx.DepthTest()))
	fmt.Fprintf(&sb, "texturing: %s (%v)\n", onOff(r.ctx.Texturing()), r.ctx.TextureMode())
	fmt.Fprintf(&sb, "lighting: %s\n", onOff(r.lighting))
	fmt.Fprintf(&sb, "culling: %s (%v)\n", onOff(r.culling), r.cullFace)
	return sb.String()
}

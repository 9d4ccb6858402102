package pipeline

import (
	"fmt"

	"github.com/taigrr/scanline/pkg/render"
)

// CreateTexture uploads texel data and returns the new texture id.
func (r *Renderer) CreateTexture(data []byte, format render.TextureFormat, width, height int) (int, error) {
	return r.ctx.Textures().Create(data, format, width, height)
}

// LoadTexture decodes an image file and uploads it.
func (r *Renderer) LoadTexture(path string) (int, error) {
	data, w, h, err := render.LoadTextureImage(path)
	if err != nil {
		return render.NoTexture, err
	}
	id, err := r.CreateTexture(data, render.FormatRGBA, w, h)
	if err != nil {
		return render.NoTexture, fmt.Errorf("upload %s: %w", path, err)
	}
	return id, nil
}

// SelectTexture binds a texture. render.NoTexture unbinds.
func (r *Renderer) SelectTexture(id int) error {
	return r.ctx.Textures().Select(id)
}

// DeleteTexture frees a texture. Its id is not reused.
func (r *Renderer) DeleteTexture(id int) error {
	return r.ctx.Textures().Delete(id)
}

// SetTextureMode selects replace or modulate. Any other value falls back
// to replace.
func (r *Renderer) SetTextureMode(m render.TextureMode) {
	if m != render.TextureReplace && m != render.TextureModulate {
		render.Logger().Warn("unknown texture mode, using replace", "mode", int(m))
		m = render.TextureReplace
	}
	r.ctx.SetTextureMode(m)
}

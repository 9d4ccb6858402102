package render

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// TextureFormat describes the byte layout of uploaded texel data.
type TextureFormat int

const (
	FormatRGB  TextureFormat = iota // 3 bytes per texel
	FormatRGBA                      // 4 bytes per texel
)

func (f TextureFormat) bytesPerTexel() int {
	switch f {
	case FormatRGB:
		return 3
	case FormatRGBA:
		return 4
	}
	return 0
}

// TextureMode selects how a texel combines with the vertex color.
type TextureMode int

const (
	TextureReplace  TextureMode = iota // texel replaces the vertex color
	TextureModulate                    // texel is multiplied by the vertex color
)

func (m TextureMode) String() string {
	if m == TextureModulate {
		return "modulate"
	}
	return "replace"
}

// NoTexture is the selection value meaning no texture is bound.
const NoTexture = -1

// Texture is an uploaded image in the internal 4-bytes-per-texel layout.
type Texture struct {
	ID     int
	Width  int
	Height int
	Data   []byte // RGBA, row-major
}

// texel returns the packed texel at (tx, ty). Coordinates are clamped to the
// texture so rounding drift at the edges cannot index outside Data.
func (t *Texture) texel(tx, ty int) uint32 {
	tx = min(max(tx, 0), t.Width-1)
	ty = min(max(ty, 0), t.Height-1)
	i := (tx + ty*t.Width) * 4
	return PackBytes(t.Data[i], t.Data[i+1], t.Data[i+2], t.Data[i+3])
}

// texelCoords maps a [0,1] texture coordinate pair to texel space.
func (t *Texture) texelCoords(u, v float64) (float64, float64) {
	return float64(int(u * float64(t.Width-1))), float64(int(v * float64(t.Height-1)))
}

// TextureStore holds uploaded textures and the current selection. Ids are
// assigned in upload order and never reused.
type TextureStore struct {
	textures []*Texture // nil entries are deleted
	selected int
	live     int
}

// NewTextureStore creates an empty store with nothing selected.
func NewTextureStore() *TextureStore {
	return &TextureStore{selected: NoTexture}
}

// Create uploads a texture and returns its id. RGB data is expanded to RGBA
// with opaque alpha.
func (s *TextureStore) Create(data []byte, format TextureFormat, width, height int) (int, error) {
	if width <= 0 || height <= 0 {
		return NoTexture, fmt.Errorf("%w: %dx%d", ErrTextureSize, width, height)
	}
	bpt := format.bytesPerTexel()
	if bpt == 0 {
		return NoTexture, fmt.Errorf("%w: %d", ErrTextureFormat, format)
	}
	if len(data) < width*height*bpt {
		return NoTexture, fmt.Errorf("%w: have %d bytes, need %d", ErrTextureSize, len(data), width*height*bpt)
	}

	rgba := make([]byte, width*height*4)
	if format == FormatRGBA {
		copy(rgba, data)
	} else {
		for i, j := 0, 0; i < width*height; i, j = i+1, j+3 {
			rgba[i*4] = data[j]
			rgba[i*4+1] = data[j+1]
			rgba[i*4+2] = data[j+2]
			rgba[i*4+3] = 0xFF
		}
	}

	id := len(s.textures)
	s.textures = append(s.textures, &Texture{ID: id, Width: width, Height: height, Data: rgba})
	s.live++
	Logger().Debug("texture created", "id", id, "width", width, "height", height)
	return id, nil
}

// Select binds a texture for subsequent textured triangles. NoTexture
// unbinds.
func (s *TextureStore) Select(id int) error {
	if id == NoTexture {
		s.selected = NoTexture
		return nil
	}
	if s.Get(id) == nil {
		Logger().Warn("select of unknown texture", "id", id)
		return fmt.Errorf("%w: %d", ErrTextureNotFound, id)
	}
	s.selected = id
	return nil
}

// Selected returns the bound texture id.
func (s *TextureStore) Selected() int {
	return s.selected
}

// Bound returns the selected texture, or nil when none is valid.
func (s *TextureStore) Bound() *Texture {
	return s.Get(s.selected)
}

// Get returns the texture with the given id, or nil.
func (s *TextureStore) Get(id int) *Texture {
	if id < 0 || id >= len(s.textures) {
		return nil
	}
	return s.textures[id]
}

// Delete frees a texture. Deleting the bound texture unbinds it.
func (s *TextureStore) Delete(id int) error {
	if s.Get(id) == nil {
		return fmt.Errorf("%w: %d", ErrTextureNotFound, id)
	}
	s.textures[id] = nil
	s.live--
	if s.selected == id {
		s.selected = NoTexture
	}
	return nil
}

// Len returns the number of live textures.
func (s *TextureStore) Len() int {
	return s.live
}

// ImageRGBA converts an image to RGBA bytes suitable for Create with
// FormatRGBA.
func ImageRGBA(img image.Image) (data []byte, width, height int) {
	bounds := img.Bounds()
	width, height = bounds.Dx(), bounds.Dy()
	data = make([]byte, 0, width*height*4)

	for y := range height {
		for x := range width {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			data = append(data, c.R, c.G, c.B, c.A)
		}
	}
	return data, width, height
}

// LoadTextureImage decodes an image file (PNG, JPEG, GIF, BMP or WebP) into
// RGBA bytes.
func LoadTextureImage(path string) (data []byte, width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	data, width, height = ImageRGBA(img)
	return data, width, height, nil
}

// CheckerRGBA creates a procedural checkerboard in RGBA bytes.
func CheckerRGBA(width, height, checkSize int, c1, c2 Color) []byte {
	a, b := c1.NRGBA(), c2.NRGBA()
	data := make([]byte, 0, width*height*4)
	for y := range height {
		for x := range width {
			c := a
			if (x/checkSize+y/checkSize)%2 != 0 {
				c = b
			}
			data = append(data, c.R, c.G, c.B, c.A)
		}
	}
	return data
}

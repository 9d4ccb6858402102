// Package models provides indexed meshes, glTF loading, and procedural
// shapes, and converts them into pipeline batches.
package models

import (
	"image"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/pipeline"
	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/scene"
	"github.com/taigrr/scanline/pkg/shading"
)

// Mesh is an indexed triangle mesh. Faces are stored front-facing
// clockwise, the orientation the renderer keeps under back-face culling.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Materials []Material

	// Colored reports whether MeshVertex.Color carries per-vertex colors.
	Colored bool
	// Mapped reports whether MeshVertex.UV carries texture coordinates.
	Mapped bool

	Bounds scene.AABB
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
	Color    render.Color
}

// Face is a triangle of vertex indices and a material reference.
type Face struct {
	V        [3]int // indices into Mesh.Vertices
	Material int    // index into Mesh.Materials, -1 for none
}

// Material is a metallic-roughness surface as glTF describes it.
type Material struct {
	Name       string
	BaseColor  render.Color
	Metallic   float64     // 0 = dielectric, 1 = metal
	Roughness  float64     // 0 = smooth, 1 = rough
	BaseMap    image.Image // optional base color texture
	HasTexture bool
}

// Shading maps the material onto the fixed-function terms. Ambient and
// diffuse take the base color, specular goes from a dielectric 4% grey
// towards the base color as metallic rises, and roughness sets the
// specular exponent.
func (m Material) Shading() shading.Material {
	dielectric := 0.04
	spec := render.RGBA(
		dielectric+(m.BaseColor.R-dielectric)*m.Metallic,
		dielectric+(m.BaseColor.G-dielectric)*m.Metallic,
		dielectric+(m.BaseColor.B-dielectric)*m.Metallic,
		1,
	)
	out := shading.DefaultMaterial().AmbientAndDiffuse(m.BaseColor)
	out.Specular = spec
	out.Shininess = (1 - m.Roughness) * 128
	out.Apply = true
	return out
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]MeshVertex, 0),
		Faces:    make([]Face, 0),
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		m.Bounds = scene.AABB{}
		return
	}
	pts := make([]math3d.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		pts[i] = v.Position
	}
	m.Bounds = scene.BoundsOf(pts)
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.Bounds.Center()
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.Bounds.Size()
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// faceNormal is the outward normal of a clockwise-front face.
func (m *Mesh) faceNormal(f Face) math3d.Vec3 {
	v0 := m.Vertices[f.V[0]].Position
	v1 := m.Vertices[f.V[1]].Position
	v2 := m.Vertices[f.V[2]].Position
	return v2.Sub(v0).Cross(v1.Sub(v0))
}

// CalculateNormals assigns each face's normal to its vertices. Shared
// vertices end up with the normal of the last face that touches them.
func (m *Mesh) CalculateNormals() {
	for _, f := range m.Faces {
		n := m.faceNormal(f).Normalize()
		for _, vi := range f.V {
			m.Vertices[vi].Normal = n
		}
	}
}

// CalculateSmoothNormals averages area-weighted face normals per vertex.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}
	for _, f := range m.Faces {
		n := m.faceNormal(f)
		for _, vi := range f.V {
			m.Vertices[vi].Normal = m.Vertices[vi].Normal.Add(n)
		}
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// HasNormals reports whether any vertex carries a usable normal.
func (m *Mesh) HasNormals() bool {
	for _, v := range m.Vertices {
		if v.Normal.Len() > 0.001 {
			return true
		}
	}
	return false
}

// Transform bakes mat into the vertex positions and normals. Normals use
// the upper 3x3 only, which is exact for rotations and uniform scales.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i].Position = mat.MulPoint(m.Vertices[i].Position).Vec3()
		m.Vertices[i].Normal = mat.MulDir(m.Vertices[i].Normal).Normalize()
	}
	m.CalculateBounds()
}

// Clone creates a deep copy of the mesh. Material images are shared.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Vertices:  make([]MeshVertex, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		Materials: make([]Material, len(m.Materials)),
		Colored:   m.Colored,
		Mapped:    m.Mapped,
		Bounds:    m.Bounds,
	}
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	copy(clone.Materials, m.Materials)
	return clone
}

// GetFaceMaterial returns the material index for face i, -1 for none.
func (m *Mesh) GetFaceMaterial(i int) int {
	return m.Faces[i].Material
}

// GetMaterial returns the material at index i, or nil when i is out of
// range.
func (m *Mesh) GetMaterial(i int) *Material {
	if i < 0 || i >= len(m.Materials) {
		return nil
	}
	return &m.Materials[i]
}

// MaterialCount returns the number of materials.
func (m *Mesh) MaterialCount() int {
	return len(m.Materials)
}

// Batch unrolls the indexed faces into one triangles batch. Vertex colors
// come from the vertices when the mesh is colored, otherwise from each
// face's material base color when the mesh has materials. Normals and UVs
// are emitted only when present, so a mesh without normals draws unlit.
func (m *Mesh) Batch() *pipeline.Batch {
	n := len(m.Faces) * 3
	b := &pipeline.Batch{
		Type:     pipeline.Triangles,
		Vertices: make([]math3d.Vec3, 0, n),
	}
	withColors := m.Colored || len(m.Materials) > 0
	withNormals := m.HasNormals()
	withUVs := m.Mapped
	if withColors {
		b.Colors = make([]render.Color, 0, n)
	}
	if withNormals {
		b.Normals = make([]math3d.Vec3, 0, n)
	}
	if withUVs {
		b.UVs = make([]math3d.Vec2, 0, n)
	}

	for _, f := range m.Faces {
		faceColor := render.White
		if mat := m.GetMaterial(f.Material); mat != nil {
			faceColor = mat.BaseColor
		}
		for _, vi := range f.V {
			v := m.Vertices[vi]
			b.Vertices = append(b.Vertices, v.Position)
			if withColors {
				c := faceColor
				if m.Colored {
					c = v.Color
				}
				b.Colors = append(b.Colors, c)
			}
			if withNormals {
				b.Normals = append(b.Normals, v.Normal)
			}
			if withUVs {
				b.UVs = append(b.UVs, v.UV)
			}
		}
	}
	return b
}

// Texture returns the first material base map, or nil.
func (m *Mesh) Texture() image.Image {
	for _, mat := range m.Materials {
		if mat.HasTexture && mat.BaseMap != nil {
			return mat.BaseMap
		}
	}
	return nil
}

// TextureUploader creates renderer textures.
type TextureUploader interface {
	CreateTexture(data []byte, format render.TextureFormat, width, height int) (int, error)
}

// Object converts the mesh into a scene object. When the mesh carries a
// base map and up is non-nil the image is uploaded and bound to the
// object. The first material, if any, becomes the object's lighting
// material.
func (m *Mesh) Object(up TextureUploader) (*scene.Object, error) {
	obj := scene.NewObject(m.Name, m.Batch())
	if len(m.Materials) > 0 {
		mat := m.Materials[0].Shading()
		obj.Material = &mat
	}
	if img := m.Texture(); img != nil && up != nil {
		data, w, h := render.ImageRGBA(img)
		id, err := up.CreateTexture(data, render.FormatRGBA, w, h)
		if err != nil {
			return nil, err
		}
		obj.Texture = id
	}
	return obj, nil
}

package models

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/lightspunctual"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/scene"
)

const lightsExtension = "KHR_lights_punctual"

// GLTFLoader loads glTF and GLB files into a Mesh.
type GLTFLoader struct {
	// Normals are generated when the file has none.
	CalculateNormals bool
	SmoothNormals    bool

	// FirstLightSlot is the renderer slot given to the first punctual
	// light. Slot 0 is left to the default headlight.
	FirstLightSlot int
}

// NewGLTFLoader creates a loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
		FirstLightSlot:   1,
	}
}

// LoadGLB loads a glTF or GLB file with default options.
func LoadGLB(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load reads path and returns every triangle primitive merged into one
// mesh, with materials and their base color maps.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.Decode(doc, filepath.Base(path), filepath.Dir(path))
}

// Decode converts an already parsed document. dir resolves external image
// URIs.
func (l *GLTFLoader) Decode(doc *gltf.Document, name, dir string) (*Mesh, error) {
	mesh := NewMesh(name)

	images := readImages(doc, dir)
	for _, m := range doc.Materials {
		mesh.Materials = append(mesh.Materials, readMaterial(doc, m, images))
	}

	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	if l.CalculateNormals && !mesh.HasNormals() {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}
	mesh.CalculateBounds()
	return mesh, nil
}

// processMesh appends the triangle primitives of m to mesh.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			render.Logger().Debug("skipping primitive", "mesh", m.Name, "mode", prim.Mode)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
			if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs [][2]float32
		if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
			mesh.Mapped = true
		}

		var colors [][4]uint16
		if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
			if colors, err = modeler.ReadColor64(doc, doc.Accessors[idx], nil); err != nil {
				return fmt.Errorf("read colors: %w", err)
			}
			// Vertices without COLOR_0 keep their material color.
			mesh.Colored = true
		}

		material := -1
		if prim.Material != nil {
			material = *prim.Material
		}
		fallback := render.White
		if mat := mesh.GetMaterial(material); mat != nil {
			fallback = mat.BaseColor
		}

		base := len(mesh.Vertices)
		for i, p := range positions {
			v := MeshVertex{
				Position: math3d.V3(float64(p[0]), float64(p[1]), float64(p[2])),
				Color:    fallback,
			}
			if i < len(normals) {
				n := normals[i]
				v.Normal = math3d.V3(float64(n[0]), float64(n[1]), float64(n[2]))
			}
			if i < len(uvs) {
				// glTF and the texture store both put v = 0 on the top row.
				v.UV = math3d.V2(float64(uvs[i][0]), float64(uvs[i][1]))
			}
			if i < len(colors) {
				c := colors[i]
				v.Color = render.RGBA(
					float64(c[0])/math.MaxUint16,
					float64(c[1])/math.MaxUint16,
					float64(c[2])/math.MaxUint16,
					float64(c[3])/math.MaxUint16,
				)
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []uint32
		if prim.Indices != nil {
			if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		// glTF front faces are counter-clockwise; swap two corners so
		// they come out clockwise.
		for i := 0; i+2 < len(indices); i += 3 {
			mesh.Faces = append(mesh.Faces, Face{
				V: [3]int{
					base + int(indices[i]),
					base + int(indices[i+2]),
					base + int(indices[i+1]),
				},
				Material: material,
			})
		}
	}
	return nil
}

// readMaterial converts a metallic-roughness material.
func readMaterial(doc *gltf.Document, m *gltf.Material, images []image.Image) Material {
	mat := Material{
		Name:      m.Name,
		BaseColor: render.White,
		Metallic:  1,
		Roughness: 1,
	}
	pbr := m.PBRMetallicRoughness
	if pbr == nil {
		return mat
	}
	c := pbr.BaseColorFactorOrDefault()
	mat.BaseColor = render.RGBA(c[0], c[1], c[2], c[3])
	mat.Metallic = pbr.MetallicFactorOrDefault()
	mat.Roughness = pbr.RoughnessFactorOrDefault()

	if tex := pbr.BaseColorTexture; tex != nil && tex.Index < len(doc.Textures) {
		if src := doc.Textures[tex.Index].Source; src != nil && *src < len(images) && images[*src] != nil {
			mat.BaseMap = images[*src]
			mat.HasTexture = true
		}
	}
	return mat
}

// readImages decodes every image in the document. Images that fail to
// load are logged and left nil.
func readImages(doc *gltf.Document, dir string) []image.Image {
	images := make([]image.Image, len(doc.Images))
	for i, img := range doc.Images {
		var data []byte
		var err error
		switch {
		case img.BufferView != nil:
			data, err = modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		case img.URI != "":
			data, err = os.ReadFile(filepath.Join(dir, img.URI))
		default:
			continue
		}
		if err == nil {
			images[i], _, err = image.Decode(bytes.NewReader(data))
		}
		if err != nil {
			render.Logger().Warn("skipping gltf image", "index", i, "name", img.Name, "err", err)
			images[i] = nil
		}
	}
	return images
}

// LoadGLBWithTexture loads a file and returns the mesh plus the first
// base color map. The image is nil when the file has none.
func LoadGLBWithTexture(path string) (*Mesh, image.Image, error) {
	mesh, err := LoadGLB(path)
	if err != nil {
		return nil, nil, err
	}
	return mesh, mesh.Texture(), nil
}

// LoadScene loads a file's mesh together with its punctual lights.
func (l *GLTFLoader) LoadScene(path string) (*Mesh, []scene.Light, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gltf: %w", err)
	}
	mesh, err := l.Decode(doc, filepath.Base(path), filepath.Dir(path))
	if err != nil {
		return nil, nil, err
	}
	return mesh, l.LoadLights(doc), nil
}

// LoadLights returns the KHR_lights_punctual lights of the document as
// world-space scene lights, numbered from l.FirstLightSlot. Directional
// lights shine down the node's -Z axis. Node hierarchies are not
// flattened; only each light node's own translation and rotation are used.
func (l *GLTFLoader) LoadLights(doc *gltf.Document) []scene.Light {
	defs, ok := doc.Extensions[lightsExtension].(lightspunctual.Lights)
	if !ok {
		return nil
	}

	var out []scene.Light
	for _, node := range doc.Nodes {
		ext, ok := node.Extensions[lightsExtension]
		if !ok {
			continue
		}
		idx, ok := ext.(lightspunctual.LightIndex)
		if !ok || int(idx) >= len(defs) {
			continue
		}
		def := defs[idx]

		intensity := 1.0
		if def.Intensity != nil {
			intensity = float64(*def.Intensity)
		}
		diffuse := render.RGB(
			float64(def.Color[0])*intensity,
			float64(def.Color[1])*intensity,
			float64(def.Color[2])*intensity,
		).Clamp()

		t := node.TranslationOrDefault()
		pos := math3d.V3(t[0], t[1], t[2])
		var sl scene.Light
		if def.Type == lightspunctual.TypeDirectional {
			forward := rotate(node.RotationOrDefault(), math3d.ViewDir())
			sl = scene.DirectionalLight(0, forward.Negate())
		} else {
			sl = scene.PointLight(0, pos)
			if def.Range != nil && !math.IsInf(float64(*def.Range), 0) && *def.Range > 0 {
				// Fall to roughly 1/25 at the cutoff range.
				rng := float64(*def.Range)
				sl.Quadratic = 24 / (rng * rng)
			}
		}
		sl.Name = node.Name
		sl.Slot = l.FirstLightSlot + len(out)
		sl.Diffuse = diffuse
		sl.Specular = diffuse
		out = append(out, sl)
	}
	return out
}

// rotate applies the unit quaternion q (x, y, z, w) to v. An all-zero
// quaternion is treated as identity.
func rotate(q [4]float64, v math3d.Vec3) math3d.Vec3 {
	if q == [4]float64{} {
		return v
	}
	u := math3d.V3(q[0], q[1], q[2])
	w := q[3]
	// v' = v + 2w(u x v) + 2u x (u x v)
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(w)).Add(u.Cross(t))
}

package models

import (
	"image"
	"math"
	"testing"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func vecNear(a, b math3d.Vec3) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Z, b.Z)
}

// triangleMesh is one clockwise-front triangle facing +Z.
func triangleMesh() *Mesh {
	m := NewMesh("tri")
	m.Vertices = []MeshVertex{
		{Position: math3d.V3(0, 0, 0)},
		{Position: math3d.V3(0, 1, 0)},
		{Position: math3d.V3(1, 0, 0)},
	}
	m.Faces = []Face{{V: [3]int{0, 1, 2}, Material: -1}}
	m.CalculateBounds()
	return m
}

func TestFaceMaterialIndex(t *testing.T) {
	mesh := NewMesh("test")
	mesh.Materials = []Material{
		{Name: "red", BaseColor: render.Red},
		{Name: "green", BaseColor: render.Green},
	}
	mesh.Faces = []Face{
		{V: [3]int{0, 1, 2}, Material: 0},
		{V: [3]int{3, 4, 5}, Material: 1},
		{V: [3]int{6, 7, 8}, Material: -1},
	}

	if mesh.GetFaceMaterial(1) != 1 || mesh.GetFaceMaterial(2) != -1 {
		t.Error("face material indices not preserved")
	}
	if mat := mesh.GetMaterial(0); mat == nil || mat.Name != "red" {
		t.Errorf("GetMaterial(0) = %+v, want red", mat)
	}
	if mesh.GetMaterial(-1) != nil || mesh.GetMaterial(99) != nil {
		t.Error("GetMaterial out of range should return nil")
	}
	if mesh.MaterialCount() != 2 {
		t.Errorf("MaterialCount = %d, want 2", mesh.MaterialCount())
	}
}

func TestMeshClone(t *testing.T) {
	mesh := triangleMesh()
	mesh.Materials = []Material{{Name: "mat1"}}
	mesh.Colored = true

	clone := mesh.Clone()
	clone.Materials[0].Name = "modified"
	clone.Vertices[0].Position = math3d.V3(9, 9, 9)

	if mesh.Materials[0].Name == "modified" || mesh.Vertices[0].Position.X == 9 {
		t.Error("Clone shares storage with the original")
	}
	if !clone.Colored || clone.Bounds != mesh.Bounds {
		t.Error("Clone dropped flags or bounds")
	}
}

func TestCalculateNormalsFaceOutward(t *testing.T) {
	m := triangleMesh()
	m.CalculateNormals()
	for i, v := range m.Vertices {
		if !vecNear(v.Normal, math3d.V3(0, 0, 1)) {
			t.Errorf("vertex %d normal = %+v, want +Z", i, v.Normal)
		}
	}
}

func TestCalculateSmoothNormals(t *testing.T) {
	// Two triangles folded along the Y axis share vertices 0 and 1.
	m := NewMesh("fold")
	m.Vertices = []MeshVertex{
		{Position: math3d.V3(0, 0, 0)},
		{Position: math3d.V3(0, 1, 0)},
		{Position: math3d.V3(1, 0, 0)},
		{Position: math3d.V3(0, 0, 1)},
	}
	m.Faces = []Face{
		{V: [3]int{0, 1, 2}},
		{V: [3]int{0, 3, 1}},
	}
	m.CalculateSmoothNormals()

	want := math3d.V3(1, 0, 1).Normalize()
	for _, i := range []int{0, 1} {
		if !vecNear(m.Vertices[i].Normal, want) {
			t.Errorf("shared vertex %d normal = %+v, want %+v", i, m.Vertices[i].Normal, want)
		}
	}
	if !vecNear(m.Vertices[3].Normal, math3d.V3(1, 0, 0)) {
		t.Errorf("vertex 3 normal = %+v, want +X", m.Vertices[3].Normal)
	}
}

func TestMeshTransform(t *testing.T) {
	m := triangleMesh()
	m.CalculateNormals()
	m.Transform(math3d.Translate(math3d.V3(0, 0, -5)).Mul(math3d.RotateY(math.Pi)))

	if !vecNear(m.Vertices[2].Position, math3d.V3(-1, 0, -5)) {
		t.Errorf("position = %+v, want (-1, 0, -5)", m.Vertices[2].Position)
	}
	if !vecNear(m.Vertices[0].Normal, math3d.V3(0, 0, -1)) {
		t.Errorf("normal = %+v, want -Z", m.Vertices[0].Normal)
	}
	if !near(m.Bounds.Max.Z, -5) {
		t.Errorf("bounds not recomputed: %+v", m.Bounds)
	}
}

func TestMeshBatch(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(m *Mesh)
		wantColors  []render.Color
		wantNormals bool
		wantUVs     bool
	}{
		{
			name:  "bare",
			setup: func(m *Mesh) {},
		},
		{
			name: "material color",
			setup: func(m *Mesh) {
				m.Materials = []Material{{BaseColor: render.Red}}
				m.Faces[0].Material = 0
			},
			wantColors: []render.Color{render.Red, render.Red, render.Red},
		},
		{
			name: "vertex colors win",
			setup: func(m *Mesh) {
				m.Materials = []Material{{BaseColor: render.Red}}
				m.Colored = true
				for i := range m.Vertices {
					m.Vertices[i].Color = render.Blue
				}
			},
			wantColors: []render.Color{render.Blue, render.Blue, render.Blue},
		},
		{
			name:        "normals and uvs",
			setup:       func(m *Mesh) { m.CalculateNormals(); m.Mapped = true },
			wantNormals: true,
			wantUVs:     true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := triangleMesh()
			tc.setup(m)
			b := m.Batch()
			if err := b.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if len(b.Vertices) != 3 || b.Vertices[1] != math3d.V3(0, 1, 0) {
				t.Errorf("vertices = %+v", b.Vertices)
			}
			if len(b.Colors) != len(tc.wantColors) {
				t.Fatalf("colors = %+v, want %+v", b.Colors, tc.wantColors)
			}
			for i := range b.Colors {
				if b.Colors[i] != tc.wantColors[i] {
					t.Errorf("color %d = %+v, want %+v", i, b.Colors[i], tc.wantColors[i])
				}
			}
			if (b.Normals != nil) != tc.wantNormals {
				t.Errorf("normals present = %v, want %v", b.Normals != nil, tc.wantNormals)
			}
			if (b.UVs != nil) != tc.wantUVs {
				t.Errorf("uvs present = %v, want %v", b.UVs != nil, tc.wantUVs)
			}
		})
	}
}

func TestMaterialShading(t *testing.T) {
	dielectric := Material{BaseColor: render.Red, Metallic: 0, Roughness: 1}.Shading()
	if !dielectric.Apply || dielectric.Diffuse != render.Red || dielectric.Ambient != render.Red {
		t.Errorf("dielectric = %+v", dielectric)
	}
	if !near(dielectric.Specular.R, 0.04) || dielectric.Shininess != 0 {
		t.Errorf("dielectric specular = %+v shininess %v", dielectric.Specular, dielectric.Shininess)
	}

	metal := Material{BaseColor: render.Red, Metallic: 1, Roughness: 0.5}.Shading()
	if !near(metal.Specular.R, 1) || !near(metal.Specular.G, 0) || metal.Shininess != 64 {
		t.Errorf("metal specular = %+v shininess %v", metal.Specular, metal.Shininess)
	}
}

type fakeUploader struct {
	calls int
	w, h  int
}

func (f *fakeUploader) CreateTexture(data []byte, _ render.TextureFormat, w, h int) (int, error) {
	f.calls++
	f.w, f.h = w, h
	return 7, nil
}

func TestMeshObject(t *testing.T) {
	m := triangleMesh()
	m.Mapped = true
	m.Materials = []Material{{
		Name:       "tex",
		BaseColor:  render.White,
		BaseMap:    image.NewNRGBA(image.Rect(0, 0, 4, 2)),
		HasTexture: true,
	}}

	up := &fakeUploader{}
	obj, err := m.Object(up)
	if err != nil {
		t.Fatal(err)
	}
	if up.calls != 1 || up.w != 4 || up.h != 2 {
		t.Errorf("upload calls=%d size=%dx%d", up.calls, up.w, up.h)
	}
	if obj.Texture != 7 || obj.Material == nil || obj.Name != "tri" {
		t.Errorf("object = %+v", obj)
	}
	if obj.Bounds != m.Bounds {
		t.Errorf("object bounds = %+v, want %+v", obj.Bounds, m.Bounds)
	}

	plain, err := triangleMesh().Object(nil)
	if err != nil {
		t.Fatal(err)
	}
	if plain.Texture != render.NoTexture || plain.Material != nil {
		t.Errorf("plain object = %+v", plain)
	}
}

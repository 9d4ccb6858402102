package models

import (
	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/pipeline"
	"github.com/taigrr/scanline/pkg/render"
)

// cubeFaces lists each face's outward normal with the right and up
// vectors as seen from outside. right x up = normal.
var cubeFaces = [6]struct{ n, u, v math3d.Vec3 }{
	{math3d.V3(0, 0, 1), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)},   // front
	{math3d.V3(0, 0, -1), math3d.V3(-1, 0, 0), math3d.V3(0, 1, 0)}, // back
	{math3d.V3(1, 0, 0), math3d.V3(0, 0, -1), math3d.V3(0, 1, 0)},  // right
	{math3d.V3(-1, 0, 0), math3d.V3(0, 0, 1), math3d.V3(0, 1, 0)},  // left
	{math3d.V3(0, 1, 0), math3d.V3(1, 0, 0), math3d.V3(0, 0, -1)},  // top
	{math3d.V3(0, -1, 0), math3d.V3(1, 0, 0), math3d.V3(0, 0, 1)},  // bottom
}

// addQuad appends a square of half-size h centered at c, facing n, as two
// clockwise triangles with the full texture mapped across it.
func (m *Mesh) addQuad(c, n, u, v math3d.Vec3, h float64, col render.Color) {
	u, v = u.Scale(h), v.Scale(h)
	base := len(m.Vertices)
	corners := [4]struct {
		p  math3d.Vec3
		uv math3d.Vec2
	}{
		{c.Sub(u).Sub(v), math3d.V2(0, 1)}, // bottom left
		{c.Sub(u).Add(v), math3d.V2(0, 0)}, // top left
		{c.Add(u).Add(v), math3d.V2(1, 0)}, // top right
		{c.Add(u).Sub(v), math3d.V2(1, 1)}, // bottom right
	}
	for _, k := range corners {
		m.Vertices = append(m.Vertices, MeshVertex{Position: k.p, Normal: n, UV: k.uv, Color: col})
	}
	m.Faces = append(m.Faces,
		Face{V: [3]int{base, base + 1, base + 2}, Material: -1},
		Face{V: [3]int{base, base + 2, base + 3}, Material: -1},
	)
}

// Cube returns an axis-aligned cube of edge size centered at the origin.
// Each face gets its own color from Palette, flat normals and a full
// texture mapping.
func Cube(size float64) *Mesh {
	m := NewMesh("cube")
	m.Colored, m.Mapped = true, true
	h := size / 2
	colors := Palette(len(cubeFaces))
	for i, f := range cubeFaces {
		m.addQuad(f.n.Scale(h), f.n, f.u, f.v, h, colors[i])
	}
	m.CalculateBounds()
	return m
}

// Quad returns a white square of edge size in the z = 0 plane facing +Z.
func Quad(size float64) *Mesh {
	m := NewMesh("quad")
	m.Colored, m.Mapped = true, true
	f := cubeFaces[0]
	m.addQuad(math3d.Zero3(), f.n, f.u, f.v, size/2, render.White)
	m.CalculateBounds()
	return m
}

// Grid returns a line batch on the XZ plane at y = 0 spanning size, with a
// line every step.
func Grid(size, step float64, c render.Color) *pipeline.Batch {
	b := &pipeline.Batch{Type: pipeline.Lines}
	if step <= 0 {
		return b
	}
	half := size / 2
	n := int(size/step + 1e-9)
	for i := 0; i <= n; i++ {
		t := -half + float64(i)*step
		b.Vertices = append(b.Vertices,
			math3d.V3(t, 0, -half), math3d.V3(t, 0, half),
			math3d.V3(-half, 0, t), math3d.V3(half, 0, t),
		)
	}
	b.Colors = make([]render.Color, len(b.Vertices))
	for i := range b.Colors {
		b.Colors[i] = c
	}
	return b
}

// Axes returns the three coordinate axes as red, green and blue lines of
// the given length from the origin.
func Axes(length float64) *pipeline.Batch {
	o := math3d.Zero3()
	return &pipeline.Batch{
		Type: pipeline.Lines,
		Vertices: []math3d.Vec3{
			o, math3d.V3(length, 0, 0),
			o, math3d.V3(0, length, 0),
			o, math3d.V3(0, 0, length),
		},
		Colors: []render.Color{
			render.Red, render.Red,
			render.Green, render.Green,
			render.Blue, render.Blue,
		},
	}
}

// cubeEdges indexes the 12 edges of the corner list in WireCube.
var cubeEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0}, // back
	{4, 5}, {5, 6}, {6, 7}, {7, 4}, // front
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // connecting
}

// WireCube returns the 12 edges of a cube of edge size as a line batch.
func WireCube(size float64, c render.Color) *pipeline.Batch {
	h := size / 2
	corners := [8]math3d.Vec3{
		math3d.V3(-h, -h, -h), math3d.V3(h, -h, -h), math3d.V3(h, h, -h), math3d.V3(-h, h, -h),
		math3d.V3(-h, -h, h), math3d.V3(h, -h, h), math3d.V3(h, h, h), math3d.V3(-h, h, h),
	}
	b := &pipeline.Batch{Type: pipeline.Lines}
	for _, e := range cubeEdges {
		b.Vertices = append(b.Vertices, corners[e[0]], corners[e[1]])
		b.Colors = append(b.Colors, c, c)
	}
	return b
}

// Marker returns a small three-axis cross centered on pos as a point
// marker with the same color on every arm.
func Marker(pos math3d.Vec3, size float64, c render.Color) *pipeline.Batch {
	h := size / 2
	b := &pipeline.Batch{Type: pipeline.Lines}
	for _, axis := range []math3d.Vec3{math3d.V3(h, 0, 0), math3d.V3(0, h, 0), math3d.V3(0, 0, h)} {
		b.Vertices = append(b.Vertices, pos.Sub(axis), pos.Add(axis))
		b.Colors = append(b.Colors, c, c)
	}
	return b
}

// Points returns the positions as a point batch in a single color.
func Points(c render.Color, pts ...math3d.Vec3) *pipeline.Batch {
	b := &pipeline.Batch{Type: pipeline.Points, Vertices: pts}
	b.Colors = make([]render.Color, len(pts))
	for i := range b.Colors {
		b.Colors[i] = c
	}
	return b
}

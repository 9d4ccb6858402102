package pipeline

import (
	"fmt"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/render"
)

// PrimitiveType is how a batch's vertices are grouped.
type PrimitiveType int

const (
	Points    PrimitiveType = iota // one vertex each
	Lines                          // independent segments, two vertices each
	Triangles                      // independent triangles, three vertices each
	Polygon                        // one convex polygon drawn as a fan
)

func (p PrimitiveType) String() string {
	switch p {
	case Points:
		return "points"
	case Lines:
		return "lines"
	case Triangles:
		return "triangles"
	case Polygon:
		return "polygon"
	}
	return fmt.Sprintf("primitive(%d)", int(p))
}

// size is the number of vertices per primitive. A polygon takes the whole
// batch.
func (p PrimitiveType) size() int {
	switch p {
	case Points:
		return 1
	case Lines:
		return 2
	case Triangles:
		return 3
	}
	return 0
}

func (p PrimitiveType) mode() render.DrawMode {
	switch p {
	case Points:
		return render.Points
	case Lines:
		return render.Lines
	case Triangles:
		return render.Triangles
	}
	return render.Polygon
}

// Batch is one draw call: model-space vertices with optional parallel
// attribute streams. A nil Colors stream draws with the current color,
// nil Normals draws unlit, and nil UVs draws untextured.
type Batch struct {
	Type     PrimitiveType
	Vertices []math3d.Vec3
	Colors   []render.Color
	Normals  []math3d.Vec3
	UVs      []math3d.Vec2
}

// Validate checks that the attribute streams line up with the vertices and
// that the vertex count fits the primitive type.
func (b *Batch) Validate() error {
	n := len(b.Vertices)
	if b.Type < Points || b.Type > Polygon {
		return fmt.Errorf("%w: unknown primitive type %d", ErrStreamLength, int(b.Type))
	}
	if b.Colors != nil && len(b.Colors) != n {
		return fmt.Errorf("%w: %d colors for %d vertices", ErrStreamLength, len(b.Colors), n)
	}
	if b.Normals != nil && len(b.Normals) != n {
		return fmt.Errorf("%w: %d normals for %d vertices", ErrStreamLength, len(b.Normals), n)
	}
	if b.UVs != nil && len(b.UVs) != n {
		return fmt.Errorf("%w: %d uvs for %d vertices", ErrStreamLength, len(b.UVs), n)
	}
	if size := b.Type.size(); size > 0 && n%size != 0 {
		return fmt.Errorf("%w: %d vertices is not a multiple of %d for %v", ErrStreamLength, n, size, b.Type)
	}
	if b.Type == Polygon && n != 0 && n < 3 {
		return fmt.Errorf("%w: polygon needs at least 3 vertices, got %d", ErrStreamLength, n)
	}
	return nil
}

// Primitives returns how many primitives the batch assembles into.
func (b *Batch) Primitives() int {
	if b.Type == Polygon {
		if len(b.Vertices) >= 3 {
			return 1
		}
		return 0
	}
	if size := b.Type.size(); size > 0 {
		return len(b.Vertices) / size
	}
	return 0
}

// Append adds the vertices of other to b. Attribute streams present in only
// one batch are padded so all streams keep the same length.
func (b *Batch) Append(other *Batch) {
	n, m := len(b.Vertices), len(other.Vertices)
	b.Vertices = append(b.Vertices, other.Vertices...)
	b.Colors = appendPadded(b.Colors, other.Colors, n, m, render.White)
	b.Normals = appendPadded(b.Normals, other.Normals, n, m, math3d.Vec3{})
	b.UVs = appendPadded(b.UVs, other.UVs, n, m, math3d.Vec2{})
}

func appendPadded[T any](dst, src []T, n, m int, zero T) []T {
	if dst == nil && src == nil {
		return nil
	}
	for len(dst) < n {
		dst = append(dst, zero)
	}
	if src == nil {
		for range m {
			dst = append(dst, zero)
		}
		return dst
	}
	return append(dst, src...)
}

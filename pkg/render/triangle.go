package render

const maxAttrs = 6

// edge holds everything interpolated along a triangle edge or across a span.
type edge struct {
	x, z float64
	a    [maxAttrs]float64
}

func (e *edge) add(d *edge, n int) {
	e.x += d.x
	e.z += d.z
	for i := range n {
		e.a[i] += d.a[i]
	}
}

func (e *edge) addScaled(d *edge, k float64, n int) {
	e.x += d.x * k
	e.z += d.z * k
	for i := range n {
		e.a[i] += d.a[i] * k
	}
}

// edgeDelta is (to-from)/steps, or zero when steps is zero.
func edgeDelta(from, to *edge, steps, n int) edge {
	var d edge
	if steps == 0 {
		return d
	}
	k := 1 / float64(steps)
	d.x = (to.x - from.x) * k
	d.z = (to.z - from.z) * k
	for i := range n {
		d.a[i] = (to.a[i] - from.a[i]) * k
	}
	return d
}

// shader is one triangle variant. n attributes are loaded per vertex by
// load, interpolated by scanTriangle, and turned into a pixel by shade.
type shader struct {
	n     int
	load  func(v *poolVertex, a *[maxAttrs]float64)
	shade func(a *[maxAttrs]float64) uint32
}

func loadChannels(p uint32, a []float64) {
	for i := range 4 {
		a[i] = float64(p >> uint(i*8) & 0xFF)
	}
}

func packChannels(a []float64) uint32 {
	var p uint32
	for i := range 4 {
		p |= uint32(min(max(int(a[i]), 0), 255)) << uint(i*8)
	}
	return p
}

// modulate multiplies two packed colors channel by channel, alpha included.
func modulate(t, c uint32) uint32 {
	var p uint32
	for i := range 4 {
		shift := uint(i * 8)
		p |= (t >> shift & 0xFF) * (c >> shift & 0xFF) / 255 << shift
	}
	return p
}

func flatShader(color uint32) *shader {
	return &shader{
		shade: func(*[maxAttrs]float64) uint32 { return color },
	}
}

func gouraudShader() *shader {
	return &shader{
		n:     4,
		load:  func(v *poolVertex, a *[maxAttrs]float64) { loadChannels(v.color, a[:4]) },
		shade: func(a *[maxAttrs]float64) uint32 { return packChannels(a[:4]) },
	}
}

func loadTexel(t *Texture, v *poolVertex, a []float64) {
	a[0], a[1] = t.texelCoords(v.uv.X, v.uv.Y)
}

func replaceShader(t *Texture) *shader {
	return &shader{
		n:     2,
		load:  func(v *poolVertex, a *[maxAttrs]float64) { loadTexel(t, v, a[:2]) },
		shade: func(a *[maxAttrs]float64) uint32 { return t.texel(int(a[0]), int(a[1])) },
	}
}

func flatModulateShader(t *Texture, color uint32) *shader {
	return &shader{
		n:    2,
		load: func(v *poolVertex, a *[maxAttrs]float64) { loadTexel(t, v, a[:2]) },
		shade: func(a *[maxAttrs]float64) uint32 {
			return modulate(t.texel(int(a[0]), int(a[1])), color)
		},
	}
}

func gouraudModulateShader(t *Texture) *shader {
	return &shader{
		n: 6,
		load: func(v *poolVertex, a *[maxAttrs]float64) {
			loadChannels(v.color, a[:4])
			loadTexel(t, v, a[4:6])
		},
		shade: func(a *[maxAttrs]float64) uint32 {
			return modulate(t.texel(int(a[4]), int(a[5])), packChannels(a[:4]))
		},
	}
}

// triangleShader picks the variant for the pooled triangle: flat when all
// three packed colors match, Gouraud otherwise, and a textured variant when
// texturing is on and a valid texture is bound.
func (c *Context) triangleShader() *shader {
	p := &c.pool
	flat := p[0].color == p[1].color && p[1].color == p[2].color

	var tex *Texture
	if c.texturing {
		tex = c.textures.Bound()
	}

	switch {
	case tex == nil && flat:
		return flatShader(p[2].color)
	case tex == nil:
		return gouraudShader()
	case c.textureMode == TextureReplace:
		return replaceShader(tex)
	case flat:
		return flatModulateShader(tex, p[2].color)
	default:
		return gouraudModulateShader(tex)
	}
}

func (c *Context) drawTriangle() {
	c.scanTriangle(c.triangleShader())
	c.stats.Triangles++
}

// scanTriangle rasterizes the pooled triangle. The edge with the largest
// vertical extent is the base; the third vertex is the apex. Each scanline
// spans from the base edge to whichever apex edge covers that row.
func (c *Context) scanTriangle(sh *shader) {
	p := &c.pool
	n := sh.n

	var vs [3]edge
	var ys [3]int
	for i := range 3 {
		ys[i] = int(p[i].y)
		vs[i].x = float64(int(p[i].x))
		vs[i].z = p[i].z
		if sh.load != nil {
			sh.load(&p[i], &vs[i].a)
		}
	}

	// Ties prefer 0-1, then 0-2, then 1-2.
	dy01, dy02, dy12 := abs(ys[1]-ys[0]), abs(ys[2]-ys[0]), abs(ys[2]-ys[1])
	i1, i2, is := 1, 2, 0
	switch {
	case dy01 >= dy02 && dy01 >= dy12:
		i1, i2, is = 0, 1, 2
	case dy02 >= dy01 && dy02 >= dy12:
		i1, i2, is = 0, 2, 1
	}

	b1, b2, s := vs[i1], vs[i2], vs[is]
	by1, by2, sy := ys[i1], ys[i2], ys[is]
	if by1 > by2 {
		b1, b2 = b2, b1
		by1, by2 = by2, by1
	}

	bd := edgeDelta(&b1, &b2, by2-by1, n)
	s1d := edgeDelta(&b1, &s, sy-by1, n)
	s2d := edgeDelta(&s, &b2, by2-sy, n)

	b, ds := b1, b1
	if sy == by1 {
		ds = s
	}

	w, h := c.fb.Width, c.fb.Height
	by2 = min(by2, h)
	if by1 < 0 {
		skip := float64(-by1)
		b.addScaled(&bd, skip, n)
		if sy > 0 {
			ds.addScaled(&s1d, skip, n)
		} else {
			ds = s
			ds.addScaled(&s2d, float64(-sy), n)
		}
		by1 = 0
	}
	if by1 >= h || by2 <= 0 {
		return
	}

	for y := by1; y <= by2; y++ {
		left, right := &b, &ds
		if b.x > ds.x {
			left, right = &ds, &b
		}
		init, end := int(left.x), int(right.x)
		span := *left
		d := edgeDelta(left, right, end-init, n)
		end = min(end, w)
		if init < 0 {
			span.addScaled(&d, float64(-init), n)
			init = 0
		}

		if y < h && init <= w && end >= 0 {
			row := y * w
			for x := init; x <= end; x++ {
				if x < w && c.testDepth(row+x, span.z) {
					c.fb.Pixels[row+x] = sh.shade(&span.a)
				}
				span.add(&d, n)
			}
		}

		b.add(&bd, n)
		if y < sy {
			ds.add(&s1d, n)
		} else {
			ds.add(&s2d, n)
		}
	}
}

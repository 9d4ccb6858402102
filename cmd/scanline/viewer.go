package main

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/models"
	"github.com/taigrr/scanline/pkg/pipeline"
	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/scene"
)

// Options selects what the viewer shows.
type Options struct {
	FPS        int
	Model      string  // .glb or .gltf file
	Shape      string  // built-in shape when no model is given
	Texture    string  // image bound to every untextured object
	Background string  // hex clear color
	Scene      string  // YAML scene file
	Intro      float64 // fly-in seconds, 0 to skip
}

// HUD tracks the frame rate shown in the status line.
type HUD struct {
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// UpdateFPS counts one frame.
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Viewer owns the renderer and scene and turns input into motion.
type Viewer struct {
	r      *pipeline.Renderer
	scn    *scene.Scene
	cam    *scene.Camera
	target math3d.Vec3
	base   []math3d.Mat4 // per-object transform before the spin

	name     string
	Rotation *RotationState
	Zoom     *Zoom
	ShowHUD  bool
	hud      HUD

	torque struct{ pitch, yaw, roll float64 }
}

const torqueStrength = 3.0

// NewViewer builds the scene for opt and binds it to surf.
func NewViewer(surf render.Surface, opt Options) (*Viewer, error) {
	if opt.FPS <= 0 {
		opt.FPS = 60
	}
	cfg := pipeline.DefaultConfig()
	cfg.Lighting = true
	if opt.Background != "" {
		bg, err := models.ParseColor(opt.Background)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		cfg.ClearColor = bg
	}

	var sf *SceneFile
	if opt.Scene != "" {
		var err error
		if sf, err = LoadSceneFile(opt.Scene); err != nil {
			return nil, err
		}
		cfg = sf.Config(cfg)
	}

	r, err := pipeline.NewRenderer(surf, cfg)
	if err != nil {
		return nil, err
	}
	cam := scene.NewCamera()
	v := &Viewer{
		r:        r,
		cam:      cam,
		scn:      scene.New(cam),
		Rotation: NewRotationState(opt.FPS),
		hud:      HUD{fpsTime: time.Now()},
	}
	if w, h := surf.Size(); h > 0 {
		cam.SetAspectRatio(float64(w) / float64(h))
	}

	switch {
	case opt.Model != "":
		if err := v.loadModel(opt.Model); err != nil {
			return nil, err
		}
	case sf == nil || opt.Shape != "":
		shape := opt.Shape
		if shape == "" {
			shape = "cube"
		}
		obj, err := shapeObject(shape, render.White)
		if err != nil {
			return nil, err
		}
		v.add(obj)
		v.name = shape
	}

	if sf != nil {
		objs, err := sf.Objects(r)
		if err != nil {
			return nil, err
		}
		v.add(objs...)
		v.scn.AddLight(sf.SceneLights()...)
		sf.ApplyCamera(cam)
		sf.ApplyRenderer(r)
		if sf.Camera.Target != nil {
			v.target = sf.Camera.Target.Vec3()
		}
		if v.name == "" {
			v.name = filepath.Base(opt.Scene)
		}
	}
	if !v.hasLight(0) {
		key := scene.DirectionalLight(0, math3d.V3(0.5, 1, 0.3))
		key.Name = "key"
		key.Ambient = render.RGB(0.2, 0.2, 0.2)
		v.scn.AddLight(key)
	}

	if opt.Texture != "" {
		id, err := r.LoadTexture(opt.Texture)
		if err != nil {
			return nil, err
		}
		for _, o := range v.scn.Objects {
			if o.Texture == render.NoTexture {
				o.Texture = id
			}
		}
	}

	cam.LookAt(v.target)
	dist := cam.Position.Distance(v.target)
	v.Zoom = NewZoom(opt.FPS, math.Min(dist*3, maxDistance), dist, opt.Intro)
	return v, nil
}

func (v *Viewer) loadModel(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".glb" && ext != ".gltf" {
		return fmt.Errorf("unsupported format: %s (use .glb or .gltf)", ext)
	}
	mesh, lights, err := models.NewGLTFLoader().LoadScene(path)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	render.Logger().Info("model loaded",
		"name", mesh.Name,
		"vertices", mesh.VertexCount(),
		"triangles", mesh.TriangleCount(),
		"lights", len(lights))
	fitMesh(mesh)
	obj, err := mesh.Object(v.r)
	if err != nil {
		return err
	}
	v.add(obj)
	v.scn.AddLight(lights...)
	v.name = filepath.Base(path)
	return nil
}

func (v *Viewer) add(objs ...*scene.Object) {
	for _, o := range objs {
		v.scn.Add(o)
		v.base = append(v.base, o.Transform)
	}
}

func (v *Viewer) hasLight(slot int) bool {
	for _, l := range v.scn.Lights {
		if l.Slot == slot {
			return true
		}
	}
	return false
}

// fitMesh centers the mesh on the origin and scales its largest side to 2.
func fitMesh(mesh *models.Mesh) {
	center := mesh.Center()
	size := mesh.Size()
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	if maxDim > 0 {
		s := 2.0 / maxDim
		mesh.Transform(math3d.ScaleUniform(s).Mul(math3d.Translate(center.Negate())))
	}
}

// shapeObject builds one of the built-in shapes. Line shapes take c; solid
// shapes carry their own colors.
func shapeObject(name string, c render.Color) (*scene.Object, error) {
	switch name {
	case "cube":
		return models.Cube(2).Object(nil)
	case "quad":
		return models.Quad(2).Object(nil)
	case "axes":
		return scene.NewObject(name, models.Axes(1.5)), nil
	case "grid":
		return scene.NewObject(name, models.Grid(4, 0.5, c)), nil
	case "wirecube":
		return scene.NewObject(name, models.WireCube(2, c)), nil
	}
	return nil, fmt.Errorf("unknown shape %q (cube, quad, axes, grid, wirecube)", name)
}

// Renderer returns the viewer's renderer.
func (v *Viewer) Renderer() *pipeline.Renderer { return v.r }

// Resize follows a new surface size.
func (v *Viewer) Resize(width, height int) error {
	if err := v.r.Resize(width, height); err != nil {
		return err
	}
	if height > 0 {
		v.cam.SetAspectRatio(float64(width) / float64(height))
	}
	return nil
}

// Frame advances motion by dt seconds and renders one frame.
func (v *Viewer) Frame(dt float64) error {
	dt = math.Min(dt, 0.1)
	v.Rotation.ApplyImpulse(v.torque.pitch*dt, v.torque.yaw*dt, v.torque.roll*dt)
	// Key releases are not reported by every terminal.
	v.torque.pitch *= 0.9
	v.torque.yaw *= 0.9
	v.torque.roll *= 0.9
	v.Rotation.Update()

	d := v.Zoom.Update(dt)
	v.cam.SetPosition(v.target.Sub(v.cam.Forward().Scale(d)))

	rot := v.Rotation.Matrix()
	for i, o := range v.scn.Objects {
		o.Transform = rot.Mul(v.base[i])
	}

	v.r.BeginFrame()
	if err := v.scn.Render(v.r); err != nil {
		return err
	}
	if err := v.r.EndFrame(); err != nil {
		return err
	}
	v.hud.UpdateFPS()
	return nil
}

// Key handles a key press named the way uv matches keys. It reports true
// when the key asks to quit.
func (v *Viewer) Key(k string) (quit bool) {
	switch k {
	case "esc", "escape", "ctrl+c":
		return true
	case "w", "up":
		v.torque.pitch = -torqueStrength
	case "s", "down":
		v.torque.pitch = torqueStrength
	case "a", "left":
		v.torque.yaw = -torqueStrength
	case "d", "right":
		v.torque.yaw = torqueStrength
	case "q":
		v.torque.roll = -torqueStrength
	case "e":
		v.torque.roll = torqueStrength
	case "space":
		v.Rotation.ApplyImpulse(
			(rand.Float64()-0.5)*1.5,
			(rand.Float64()-0.5)*1.5,
			(rand.Float64()-0.5)*1.5,
		)
	case "r":
		v.Rotation.Reset()
		v.Zoom.Reset()
	case "+", "=":
		v.Zoom.Step(-0.5)
	case "-", "_":
		v.Zoom.Step(0.5)
	case "t":
		v.r.SetTexturing(!v.r.Context().Texturing())
	case "l":
		v.r.SetLighting(!v.r.Lighting())
	case "c":
		v.r.SetCulling(!v.r.Culling())
	case "f":
		if v.r.CullFace() == pipeline.CullBack {
			v.r.SetCullFace(pipeline.CullFront)
		} else {
			v.r.SetCullFace(pipeline.CullBack)
		}
	case "?", "shift+/":
		v.ShowHUD = !v.ShowHUD
	}
	return false
}

// Release stops the torque a held key applied.
func (v *Viewer) Release(k string) {
	switch k {
	case "w", "up", "s", "down":
		v.torque.pitch = 0
	case "a", "left", "d", "right":
		v.torque.yaw = 0
	case "q", "e":
		v.torque.roll = 0
	}
}

// Drag spins the model by a pointer movement in cells or pixels.
func (v *Viewer) Drag(dx, dy int) {
	v.Rotation.ApplyImpulse(float64(dy)*0.03, float64(dx)*0.03, 0)
}

// Status is the one-line HUD text.
func (v *Viewer) Status() string {
	st := v.r.Stats()
	return fmt.Sprintf("%s  %.0f fps  %d tris  %d culled  tex:%s light:%s cull:%s(%v)",
		v.name, v.hud.fps, st.Triangles, st.Culled,
		onOff(v.r.Context().Texturing()), onOff(v.r.Lighting()), onOff(v.r.Culling()), v.r.CullFace())
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

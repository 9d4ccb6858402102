package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/models"
	"github.com/taigrr/scanline/pkg/pipeline"
	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/scene"
	"github.com/taigrr/scanline/pkg/shading"
)

// hexColor is a color written as "#rrggbb" in a scene file.
type hexColor struct {
	render.Color
	set bool
}

// UnmarshalYAML implements yaml.Unmarshaler for hexColor.
func (c *hexColor) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	col, err := models.ParseColor(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	c.Color, c.set = col, true
	return nil
}

func (c hexColor) or(def render.Color) render.Color {
	if c.set {
		return c.Color
	}
	return def
}

type vec3 [3]float64

func (v vec3) Vec3() math3d.Vec3 { return math3d.V3(v[0], v[1], v[2]) }

// SceneFile is the YAML scene description loaded with -scene.
type SceneFile struct {
	ClearColor    hexColor      `yaml:"clear_color"`
	GlobalAmbient hexColor      `yaml:"global_ambient"`
	Lighting      *bool         `yaml:"lighting"` // nil keeps the default
	Culling       *bool         `yaml:"culling"`
	CullFace      string        `yaml:"cull_face"`
	DepthTest     *bool         `yaml:"depth_test"`
	TextureMode   string        `yaml:"texture_mode"`
	Camera        CameraConfig  `yaml:"camera"`
	Material      *MaterialSpec `yaml:"material"`
	Lights        []LightSpec   `yaml:"lights"`
	ObjectSpecs   []ObjectSpec  `yaml:"objects"`

	dir string // resolves relative model and texture paths
}

// CameraConfig places the camera. Zero values keep the defaults.
type CameraConfig struct {
	Position *vec3   `yaml:"position"`
	Target   *vec3   `yaml:"target"`
	FOV      float64 `yaml:"fov"` // degrees
	Near     float64 `yaml:"near"`
	Far      float64 `yaml:"far"`
}

// MaterialSpec sets the lighting material.
type MaterialSpec struct {
	Emission  hexColor `yaml:"emission"`
	Ambient   hexColor `yaml:"ambient"`
	Diffuse   hexColor `yaml:"diffuse"`
	Specular  hexColor `yaml:"specular"`
	Shininess float64  `yaml:"shininess"`
}

// LightSpec is one world-space light.
type LightSpec struct {
	Name        string    `yaml:"name"`
	Slot        int       `yaml:"slot"`
	Position    vec3      `yaml:"position"`
	Directional bool      `yaml:"directional"`
	Ambient     hexColor  `yaml:"ambient"`
	Diffuse     hexColor  `yaml:"diffuse"`
	Specular    hexColor  `yaml:"specular"`
	Attenuation *vec3     `yaml:"attenuation"` // constant, linear, quadratic
	Spot        *SpotSpec `yaml:"spot"`
}

// SpotSpec narrows a light to a cone.
type SpotSpec struct {
	Direction vec3    `yaml:"direction"`
	Cutoff    float64 `yaml:"cutoff"` // degrees
	Exponent  float64 `yaml:"exponent"`
}

// ObjectSpec is a built-in shape or a model file placed in the world.
type ObjectSpec struct {
	Name     string   `yaml:"name"`
	Shape    string   `yaml:"shape"`
	Model    string   `yaml:"model"`
	Texture  string   `yaml:"texture"`
	Color    hexColor `yaml:"color"`
	Position vec3     `yaml:"position"`
	Rotation vec3     `yaml:"rotation"` // degrees about X, Y, Z
	Scale    float64  `yaml:"scale"`
}

// LoadSceneFile reads and parses a scene file.
func LoadSceneFile(path string) (*SceneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	sf, err := ParseSceneFile(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	sf.dir = filepath.Dir(path)
	return sf, nil
}

// ParseSceneFile parses scene YAML.
func ParseSceneFile(data []byte) (*SceneFile, error) {
	var sf SceneFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	switch sf.CullFace {
	case "", "back", "front":
	default:
		return nil, fmt.Errorf("cull_face %q: want back or front", sf.CullFace)
	}
	switch sf.TextureMode {
	case "", "replace", "modulate":
	default:
		return nil, fmt.Errorf("texture_mode %q: want replace or modulate", sf.TextureMode)
	}
	for i, o := range sf.ObjectSpecs {
		if (o.Shape == "") == (o.Model == "") {
			return nil, fmt.Errorf("object %d: exactly one of shape or model is required", i)
		}
	}
	return &sf, nil
}

// Config overlays the file's render state on cfg.
func (sf *SceneFile) Config(cfg pipeline.Config) pipeline.Config {
	cfg.ClearColor = sf.ClearColor.or(cfg.ClearColor)
	if sf.Lighting != nil {
		cfg.Lighting = *sf.Lighting
	}
	if sf.Culling != nil {
		cfg.Culling = *sf.Culling
	}
	if sf.DepthTest != nil {
		cfg.DepthTest = *sf.DepthTest
	}
	if sf.CullFace == "front" {
		cfg.CullFace = pipeline.CullFront
	} else if sf.CullFace == "back" {
		cfg.CullFace = pipeline.CullBack
	}
	switch sf.TextureMode {
	case "replace":
		cfg.TextureMode = render.TextureReplace
	case "modulate":
		cfg.TextureMode = render.TextureModulate
	}
	return cfg
}

// ApplyCamera updates cam with the file's camera settings.
func (sf *SceneFile) ApplyCamera(cam *scene.Camera) {
	c := sf.Camera
	if c.Position != nil {
		cam.SetPosition(c.Position.Vec3())
	}
	if c.Target != nil {
		cam.LookAt(c.Target.Vec3())
	}
	if c.FOV > 0 {
		cam.SetFOV(c.FOV * math.Pi / 180)
	}
	if c.Near > 0 && c.Far > c.Near {
		cam.SetClipPlanes(c.Near, c.Far)
	}
}

// ApplyRenderer sets the global ambient and material on r.
func (sf *SceneFile) ApplyRenderer(r *pipeline.Renderer) {
	sh := r.Shading()
	r.SetGlobalAmbient(sf.GlobalAmbient.or(sh.GlobalAmbient))
	if m := sf.Material; m != nil {
		def := shading.DefaultMaterial()
		r.SetMaterial(shading.Material{
			Emission:  m.Emission.or(def.Emission),
			Ambient:   m.Ambient.or(def.Ambient),
			Diffuse:   m.Diffuse.or(def.Diffuse),
			Specular:  m.Specular.or(def.Specular),
			Shininess: m.Shininess,
			Apply:     true,
		})
	}
}

// SceneLights converts the light specs.
func (sf *SceneFile) SceneLights() []scene.Light {
	out := make([]scene.Light, 0, len(sf.Lights))
	for _, ls := range sf.Lights {
		l := scene.PointLight(ls.Slot, ls.Position.Vec3())
		if ls.Directional {
			l = scene.DirectionalLight(ls.Slot, ls.Position.Vec3())
		}
		l.Name = ls.Name
		l.Ambient = ls.Ambient.or(render.Black)
		l.Diffuse = ls.Diffuse.or(render.White)
		l.Specular = ls.Specular.or(render.White)
		if a := ls.Attenuation; a != nil {
			l.Constant, l.Linear, l.Quadratic = a[0], a[1], a[2]
		}
		if s := ls.Spot; s != nil {
			l.SpotDirection = s.Direction.Vec3()
			l.SpotCutoff = s.Cutoff
			l.SpotExponent = s.Exponent
		}
		out = append(out, l)
	}
	return out
}

// Transform returns the object's model-to-world matrix: scale, then
// rotate about X, Y, Z, then translate.
func (o ObjectSpec) Transform() math3d.Mat4 {
	s := o.Scale
	if s == 0 {
		s = 1
	}
	rad := o.Rotation.Vec3().Scale(math.Pi / 180)
	return math3d.Translate(o.Position.Vec3()).
		Mul(math3d.RotateZ(rad.Z)).
		Mul(math3d.RotateY(rad.Y)).
		Mul(math3d.RotateX(rad.X)).
		Mul(math3d.ScaleUniform(s))
}

// Objects builds scene objects, loading models and textures through r.
func (sf *SceneFile) Objects(r *pipeline.Renderer) ([]*scene.Object, error) {
	var out []*scene.Object
	for i, spec := range sf.ObjectSpecs {
		obj, err := sf.object(r, spec)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		obj.Transform = spec.Transform()
		if spec.Name != "" {
			obj.Name = spec.Name
		}
		if spec.Texture != "" {
			id, err := r.LoadTexture(sf.path(spec.Texture))
			if err != nil {
				return nil, fmt.Errorf("object %d: %w", i, err)
			}
			obj.Texture = id
		}
		out = append(out, obj)
	}
	return out, nil
}

func (sf *SceneFile) object(r *pipeline.Renderer, spec ObjectSpec) (*scene.Object, error) {
	if spec.Model != "" {
		mesh, err := models.LoadGLB(sf.path(spec.Model))
		if err != nil {
			return nil, err
		}
		fitMesh(mesh)
		return mesh.Object(r)
	}
	return shapeObject(spec.Shape, spec.Color.or(render.White))
}

func (sf *SceneFile) path(p string) string {
	if filepath.IsAbs(p) || sf.dir == "" {
		return p
	}
	return filepath.Join(sf.dir, p)
}

// Package scene reads csg scenes described in YAML.
//
// A scene names its materials and describes a single shape tree:
//
//	raymarch: {min_dist: 0.01, max_dist: 10, max_iter: 20}
//	materials:
//	  red:   {flat: [1, 0, 0]}
//	  green: {flat: [0, 1, 0]}
//	shape:
//	  union:
//	    - sphere: {radius: 1, material: red}
//	    - translate:
//	        by: [1, 0, 0]
//	        shape: {sphere: {radius: 1, material: green}}
//
// Each shape node has exactly one of the keys sphere, plane, union, intersect,
// exclude, subtract or translate. Boolean operations take a list of at least
// two shapes and fold left to right. subtract removes every following shape
// from the first one.
package scene

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/soypat/csg"
	"github.com/soypat/csg/gleval"
	"github.com/soypat/geometry/ms3"
	"gopkg.in/yaml.v3"
)

// Scene is the decoded form of a YAML scene file.
type Scene struct {
	Raymarch  *Raymarch           `yaml:"raymarch,omitempty"`
	Materials map[string]Material `yaml:"materials"`
	Shape     Shape               `yaml:"shape"`
}

// Raymarch holds the optional termination policy of the scene.
type Raymarch struct {
	MinDist float32 `yaml:"min_dist"`
	MaxDist float32 `yaml:"max_dist"`
	MaxIter int     `yaml:"max_iter"`
}

// Material is a named surface description. Flat is an RGB triplet in [0,1].
type Material struct {
	Flat *[3]float32 `yaml:"flat,omitempty"`
}

// Shape is a node of the scene's shape tree. Exactly one field must be set.
type Shape struct {
	Sphere    *Sphere    `yaml:"sphere,omitempty"`
	Plane     *Plane     `yaml:"plane,omitempty"`
	Union     []Shape    `yaml:"union,omitempty"`
	Intersect []Shape    `yaml:"intersect,omitempty"`
	Exclude   []Shape    `yaml:"exclude,omitempty"`
	Subtract  []Shape    `yaml:"subtract,omitempty"`
	Translate *Translate `yaml:"translate,omitempty"`
}

// Sphere is a sphere centered at the origin.
type Sphere struct {
	Radius   float32 `yaml:"radius"`
	Material string  `yaml:"material"`
}

// Plane is the half-space below the plane {p : dot(p, normal) = offset}.
type Plane struct {
	Normal   [3]float32 `yaml:"normal"`
	Offset   float32    `yaml:"offset"`
	Material string     `yaml:"material"`
}

// Translate displaces Shape by By.
type Translate struct {
	By    [3]float32 `yaml:"by"`
	Shape *Shape     `yaml:"shape"`
}

// Parse decodes a scene from r. Unknown keys are an error.
func Parse(r io.Reader) (*Scene, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var sc Scene
	err := dec.Decode(&sc)
	if err != nil {
		return nil, fmt.Errorf("yaml decode: %w", err)
	}
	return &sc, nil
}

// ParseFile decodes the scene stored in the named file.
func ParseFile(name string) (*Scene, error) {
	fp, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	sc, err := Parse(fp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return sc, nil
}

// RaymarchConfig returns the scene's termination policy, or the default one
// if the scene has none.
func (sc *Scene) RaymarchConfig() (gleval.RaymarchConfig, error) {
	if sc.Raymarch == nil {
		return gleval.DefaultRaymarchConfig(), nil
	}
	cfg := gleval.RaymarchConfig{
		MinDist: sc.Raymarch.MinDist,
		MaxDist: sc.Raymarch.MaxDist,
		MaxIter: sc.Raymarch.MaxIter,
	}
	err := cfg.Validate()
	if err != nil {
		return cfg, fmt.Errorf("scene raymarch: %w", err)
	}
	return cfg, nil
}

// Build constructs the scene's SDF. Invalid dimensions, unknown materials and
// malformed shape nodes are reported together.
func (sc *Scene) Build() (csg.SDF, error) {
	materials := make(map[string]csg.Material, len(sc.Materials))
	var errs []error
	for name, m := range sc.Materials {
		mat, err := m.build()
		if err != nil {
			errs = append(errs, fmt.Errorf("material %q: %w", name, err))
			continue
		}
		materials[name] = mat
	}
	if len(errs) > 0 {
		return csg.SDF{}, errors.Join(errs...)
	}
	b := builder{materials: materials}
	b.bld.SetFlags(csg.FlagNoDimensionPanic)
	s := b.shape("shape", &sc.Shape)
	if len(b.errs) > 0 {
		return csg.SDF{}, errors.Join(b.errs...)
	} else if err := b.bld.Err(); err != nil {
		return csg.SDF{}, err
	}
	return s, nil
}

func (m Material) build() (csg.Material, error) {
	if m.Flat == nil {
		return csg.Material{}, errors.New("missing material kind, want flat")
	}
	c := *m.Flat
	for _, v := range c {
		if !(v >= 0 && v <= 1) {
			return csg.Material{}, fmt.Errorf("flat color %v out of [0,1] range", c)
		}
	}
	return csg.FlatRGB(c[0], c[1], c[2]), nil
}

type builder struct {
	bld       csg.Builder
	materials map[string]csg.Material
	errs      []error
}

func (b *builder) errorf(path, format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf("%s: %s", path, fmt.Sprintf(format, args...)))
}

// shape builds the node at path. On error it records the failure and returns
// an empty SDF which callers propagate without further combination.
func (b *builder) shape(path string, sh *Shape) csg.SDF {
	if sh == nil {
		b.errorf(path, "missing shape")
		return csg.SDF{}
	}
	set := 0
	for _, isSet := range [...]bool{sh.Sphere != nil, sh.Plane != nil, sh.Union != nil, sh.Intersect != nil,
		sh.Exclude != nil, sh.Subtract != nil, sh.Translate != nil} {
		if isSet {
			set++
		}
	}
	if set != 1 {
		b.errorf(path, "want exactly one shape kind, got %d", set)
		return csg.SDF{}
	}
	switch {
	case sh.Sphere != nil:
		mat, ok := b.material(path+".sphere", sh.Sphere.Material)
		if !ok {
			return csg.SDF{}
		}
		return b.bld.NewSphere(sh.Sphere.Radius, mat)

	case sh.Plane != nil:
		mat, ok := b.material(path+".plane", sh.Plane.Material)
		if !ok {
			return csg.SDF{}
		}
		n := sh.Plane.Normal
		return b.bld.NewPlane(ms3.Vec{X: n[0], Y: n[1], Z: n[2]}, sh.Plane.Offset, mat)

	case sh.Translate != nil:
		s := b.shape(path+".translate.shape", sh.Translate.Shape)
		if s.IsEmpty() {
			return s
		}
		v := sh.Translate.By
		return b.bld.Translate(s, v[0], v[1], v[2])

	case sh.Union != nil:
		return b.fold(path+".union", sh.Union, b.bld.Union)
	case sh.Intersect != nil:
		return b.fold(path+".intersect", sh.Intersect, b.bld.Intersection)
	case sh.Exclude != nil:
		return b.fold(path+".exclude", sh.Exclude, b.bld.Exclusion)
	default:
		// Subtraction(a, b) removes a from b.
		return b.fold(path+".subtract", sh.Subtract, func(acc, cutter csg.SDF) csg.SDF {
			return b.bld.Subtraction(cutter, acc)
		})
	}
}

func (b *builder) fold(path string, shapes []Shape, op func(a, b csg.SDF) csg.SDF) csg.SDF {
	if len(shapes) < 2 {
		b.errorf(path, "want at least 2 shapes, got %d", len(shapes))
		return csg.SDF{}
	}
	built := make([]csg.SDF, len(shapes))
	failed := false
	for i := range shapes {
		built[i] = b.shape(path+"["+strconv.Itoa(i)+"]", &shapes[i])
		failed = failed || built[i].IsEmpty()
	}
	if failed {
		return csg.SDF{}
	}
	acc := built[0]
	for _, s := range built[1:] {
		acc = op(acc, s)
	}
	return acc
}

func (b *builder) material(path, name string) (csg.Material, bool) {
	mat, ok := b.materials[name]
	if !ok {
		b.errorf(path, "unknown material %q", name)
	}
	return mat, ok
}

package csg_test

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/csg"
	"github.com/soypat/csg/gleval"
	"github.com/soypat/geometry/ms3"
)

var (
	red   = csg.Flat(color.RGBA{R: 255, A: 255})
	green = csg.Flat(color.RGBA{G: 255, A: 255})
	blue  = csg.FlatRGB(0, 0, 1)
)

// twoSpheres is the demo scene: a red unit sphere at the origin
// unioned with a green unit sphere displaced along x.
func twoSpheres(bld *csg.Builder) csg.SDF {
	return bld.Union(bld.NewSphere(1, red), bld.Translate(bld.NewSphere(1, green), 1, 0, 0))
}

func randomVec(rng *rand.Rand, scale float32) ms3.Vec {
	return ms3.Vec{
		X: scale * (2*rng.Float32() - 1),
		Y: scale * (2*rng.Float32() - 1),
		Z: scale * (2*rng.Float32() - 1),
	}
}

// randomScene builds a random graph. Parameters are drawn from small discrete sets
// so that identical sub-shapes appear often and deduplication is exercised.
func randomScene(bld *csg.Builder, rng *rand.Rand, depth int) csg.SDF {
	palette := [...]csg.Material{red, green, blue}
	mat := palette[rng.Intn(len(palette))]
	if depth == 0 || rng.Intn(4) == 0 {
		if rng.Intn(5) == 0 {
			normals := [...]ms3.Vec{{X: 1}, {Y: 1}, {Z: -1}, {X: 1, Y: 1}}
			return bld.NewPlane(normals[rng.Intn(len(normals))], float32(rng.Intn(3))-1, mat)
		}
		s := bld.NewSphere(0.5*float32(1+rng.Intn(2)), mat)
		return bld.Translate(s, float32(rng.Intn(3))-1, float32(rng.Intn(3))-1, 0)
	}
	a := randomScene(bld, rng, depth-1)
	b := randomScene(bld, rng, depth-1)
	switch rng.Intn(4) {
	case 0:
		return bld.Union(a, b)
	case 1:
		return bld.Intersection(a, b)
	case 2:
		return bld.Exclusion(a, b)
	default:
		return bld.Subtraction(a, b)
	}
}

func TestSphereDistance(t *testing.T) {
	var bld csg.Builder
	s := bld.NewSphere(1, red)
	var tests = []struct {
		p    ms3.Vec
		want float32
	}{
		{p: ms3.Vec{}, want: -1},
		{p: ms3.Vec{X: 2}, want: 1},
		{p: ms3.Vec{Y: -1}, want: 0},
		{p: ms3.Vec{X: 3, Y: 4}, want: 4},
	}
	for _, test := range tests {
		got := s.Distance(test.p)
		if got != test.want {
			t.Errorf("distance at %v: got %v, want %v", test.p, got, test.want)
		}
	}
}

func TestPlaneDistance(t *testing.T) {
	var bld csg.Builder
	// Non-unit normal: plane is {p : 2*p.y = 4}, that is y=2.
	p := bld.NewPlane(ms3.Vec{Y: 2}, 4, red)
	node := p.Node(0)
	if node.Vec != (ms3.Vec{Y: 1}) || node.Scalar != 2 {
		t.Fatalf("plane not normalized: %+v", node)
	}
	if d := p.Distance(ms3.Vec{X: 5, Y: 2, Z: -3}); d != 0 {
		t.Errorf("point on plane: got distance %v", d)
	}
	if d := p.Distance(ms3.Vec{Y: 5}); d != 3 {
		t.Errorf("point above plane: got %v, want 3", d)
	}
	if d := p.Distance(ms3.Vec{}); d != -2 {
		t.Errorf("origin: got %v, want -2", d)
	}
}

func TestDeduplicateIdenticalSpheres(t *testing.T) {
	var bld csg.Builder
	u := bld.Union(bld.NewSphere(1, red), bld.NewSphere(1, red))
	if u.NumNodes() != 2 {
		t.Fatalf("want 2 nodes, got %d: %+v", u.NumNodes(), u.Nodes())
	} else if u.NumMaterials() != 1 {
		t.Fatalf("want 1 material, got %d", u.NumMaterials())
	}
	if got := u.CountOp(csg.OpSphere); got != 1 {
		t.Errorf("want 1 sphere, got %d", got)
	}
	root := u.Node(u.Root())
	if root.Op != csg.OpUnion || root.A != 0 || root.B != 0 {
		t.Errorf("want union referencing sphere twice, got %+v", root)
	}
}

func TestDeduplicateSharedSubshapes(t *testing.T) {
	var bld csg.Builder
	mk := func() csg.SDF {
		return bld.Subtraction(bld.NewSphere(0.5, blue), bld.Translate(bld.NewSphere(1, red), 0, 1, 0))
	}
	// Two independently built copies of the same subtraction share all nodes.
	u := bld.Union(mk(), mk())
	if u.NumNodes() != 4 {
		t.Errorf("want 4 nodes (2 spheres, subtraction, union), got %d", u.NumNodes())
	}
	// Same spheres with different materials are distinct.
	u = bld.Union(bld.NewSphere(1, red), bld.NewSphere(1, green))
	if u.CountOp(csg.OpSphere) != 2 || u.NumMaterials() != 2 {
		t.Errorf("distinct materials folded: %+v", u.Nodes())
	}
}

func TestDAGInvariant(t *testing.T) {
	var bld csg.Builder
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		s := randomScene(&bld, rng, 4)
		for j, node := range s.Nodes() {
			if node.Op.IsPrimitive() {
				if node.A < 0 || node.A >= s.NumMaterials() {
					t.Fatalf("node %d: material %d out of range", j, node.A)
				}
			} else if node.A >= j || node.B >= j || node.A < 0 || node.B < 0 {
				t.Fatalf("node %d: children (%d,%d) do not precede node", j, node.A, node.B)
			}
		}
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	var bld csg.Builder
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		s := randomScene(&bld, rng, 4)
		s1 := s.Simplify()
		s2 := s1.Simplify()
		if !s1.Equal(s2) {
			t.Fatalf("simplify not idempotent:\n%+v\n%+v", s1.Nodes(), s2.Nodes())
		}
		if s.NumNodes() >= 3 && s.Node(s.Root()).Op.IsPrimitive() {
			t.Fatal("root of combined shape should be an operation")
		}
	}
}

func TestTranslationInvariance(t *testing.T) {
	var bld csg.Builder
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		s := randomScene(&bld, rng, 3)
		v := randomVec(rng, 2)
		st := bld.Translate(s, v.X, v.Y, v.Z)
		for j := 0; j < 20; j++ {
			p := randomVec(rng, 3)
			want := s.Distance(p)
			got := st.Distance(ms3.Add(p, v))
			if math32.Abs(got-want) > 1e-4*(1+math32.Abs(want)) {
				t.Fatalf("translation by %v: distance at %v got %v, want %v", v, p, got, want)
			}
		}
	}
}

func TestOperationIdentities(t *testing.T) {
	var bld csg.Builder
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 100; i++ {
		a := randomScene(&bld, rng, 2)
		b := randomScene(&bld, rng, 2)
		uab, uba := bld.Union(a, b), bld.Union(b, a)
		xab, xba := bld.Exclusion(a, b), bld.Exclusion(b, a)
		iab := bld.Intersection(a, b)
		sab := bld.Subtraction(a, b)
		for j := 0; j < 20; j++ {
			p := randomVec(rng, 3)
			da, db := a.Distance(p), b.Distance(p)
			if got, want := uab.Distance(p), uba.Distance(p); got != want {
				t.Fatalf("union not commutative at %v: %v != %v", p, got, want)
			}
			if got, want := uab.Distance(p), math32.Min(da, db); got != want {
				t.Fatalf("union at %v: got %v, want %v", p, got, want)
			}
			if got, want := xab.Distance(p), xba.Distance(p); got != want {
				t.Fatalf("exclusion not symmetric at %v: %v != %v", p, got, want)
			}
			if got, want := iab.Distance(p), math32.Max(da, db); got != want {
				t.Fatalf("intersection at %v: got %v, want %v", p, got, want)
			}
			if got, want := sab.Distance(p), math32.Max(-da, db); got != want {
				t.Fatalf("subtraction at %v: got %v, want %v", p, got, want)
			}
		}
	}
}

func TestCombinatorsDoNotModifyOperands(t *testing.T) {
	var bld csg.Builder
	a := twoSpheres(&bld)
	b := bld.NewPlane(ms3.Vec{Z: 1}, 0.5, blue)
	aNodes, bNodes := a.Nodes(), b.Nodes()
	_ = bld.Subtraction(a, b)
	_ = bld.Union(a, a)
	_ = bld.Translate(a, 3, 2, 1)
	_ = bld.Exclusion(b, a)
	if !a.Equal(twoSpheres(&bld)) {
		t.Error("operand a modified")
	}
	for i := range aNodes {
		if a.Node(i) != aNodes[i] {
			t.Fatalf("node %d of a modified", i)
		}
	}
	if b.Node(0) != bNodes[0] {
		t.Error("operand b modified")
	}
	// Self union folds down to the operand plus a single operation node.
	self := bld.Union(a, a)
	if self.NumNodes() != a.NumNodes()+1 {
		t.Errorf("self union: want %d nodes, got %d", a.NumNodes()+1, self.NumNodes())
	}
}

func TestRaymarchScenes(t *testing.T) {
	var bld csg.Builder
	scene := twoSpheres(&bld)
	cfg := gleval.DefaultRaymarchConfig()
	origin := ms3.Vec{Z: -5}

	hit, err := scene.Raymarch(origin, ms3.Vec{Z: 1}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if hit.Outcome != gleval.RaymarchHit {
		t.Fatalf("want hit, got %s", hit.Outcome)
	} else if math32.Abs(hit.Point.Z+1) > cfg.MinDist {
		t.Errorf("want hit at z=-1, got %v", hit.Point)
	}

	miss, err := scene.Raymarch(origin, ms3.Vec{Z: -1}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if miss.Outcome != gleval.RaymarchWentTooFar {
		t.Errorf("want went too far, got %s", miss.Outcome)
	}

	// Grazing ray creeps along the surface and runs out of iterations.
	graze, err := scene.Raymarch(ms3.Vec{X: -1.01, Z: -5}, ms3.Vec{Z: 1}, gleval.RaymarchConfig{MinDist: 1e-6, MaxDist: 10, MaxIter: 5})
	if err != nil {
		t.Fatal(err)
	}
	if graze.Outcome != gleval.RaymarchTookTooLong {
		t.Errorf("want took too long, got %s", graze.Outcome)
	}

	_, err = scene.Raymarch(origin, ms3.Vec{}, cfg)
	if err == nil {
		t.Error("expected error for zero direction")
	}
}

func TestMaterialAt(t *testing.T) {
	var bld csg.Builder
	scene := twoSpheres(&bld)
	if got := scene.MaterialAt(ms3.Vec{X: -2}); got != red {
		t.Errorf("left of scene: want red, got %v", got.RGBA())
	}
	if got := scene.MaterialAt(ms3.Vec{X: 3}); got != green {
		t.Errorf("right of scene: want green, got %v", got.RGBA())
	}
	// Carve the green sphere with a blue one: surface inside the carved
	// region is determined by the blue sphere.
	carved := bld.Subtraction(bld.Translate(bld.NewSphere(0.5, blue), 2, 0, 0), scene)
	if got := carved.MaterialAt(ms3.Vec{X: 1.4}); got != blue {
		t.Errorf("carved: want blue, got %v", got.RGBA())
	}
	colors := make([]ms3.Vec, 2)
	err := scene.EvaluateColor([]ms3.Vec{{X: -2}, {X: 3}}, colors, &gleval.VecPool{})
	if err != nil {
		t.Fatal(err)
	}
	if colors[0] != red.Color() || colors[1] != green.Color() {
		t.Errorf("unexpected colors %v", colors)
	}
}

func TestEvaluateMatchesDistance(t *testing.T) {
	var bld csg.Builder
	rng := rand.New(rand.NewSource(5))
	var vp gleval.VecPool
	pos := make([]ms3.Vec, 64)
	dist := make([]float32, len(pos))
	for i := 0; i < 50; i++ {
		s := randomScene(&bld, rng, 3)
		for j := range pos {
			pos[j] = randomVec(rng, 3)
		}
		err := s.Evaluate(pos, dist, &vp)
		if err != nil {
			t.Fatal(err)
		}
		for j, p := range pos {
			if want := s.Distance(p); dist[j] != want {
				t.Fatalf("Evaluate and Distance mismatch at %v: %v != %v", p, dist[j], want)
			}
		}
	}
	if err := vp.AssertAllReleased(); err != nil {
		t.Error(err)
	}
	if err := (csg.SDF{}).Evaluate(pos[:1], dist[:2], nil); err == nil {
		t.Error("expected buffer length mismatch error")
	}
}

func TestBounds(t *testing.T) {
	var bld csg.Builder
	rng := rand.New(rand.NewSource(6))
	for i := 0; i < 100; i++ {
		s := randomScene(&bld, rng, 3)
		if s.CountOp(csg.OpPlane) > 0 {
			continue // Unbounded.
		}
		bb := s.Bounds()
		size := bb.Size()
		for j := 0; j < 50; j++ {
			p := randomVec(rng, 4)
			outside := p.X < bb.Min.X || p.Y < bb.Min.Y || p.Z < bb.Min.Z ||
				p.X > bb.Max.X || p.Y > bb.Max.Y || p.Z > bb.Max.Z
			if outside && size.X > 0 && s.Distance(p) < 0 {
				t.Fatalf("point %v outside bounds %v has negative distance %v", p, bb, s.Distance(p))
			}
		}
	}
}

func TestBuilderErrors(t *testing.T) {
	var bld csg.Builder
	bld.SetFlags(csg.FlagNoDimensionPanic)
	s := bld.NewSphere(-1, red)
	if s.IsEmpty() {
		t.Error("expecting non-empty shape")
	}
	if bld.Err() == nil {
		t.Error("expecting error for negative radius")
	}
	bld.ClearErrors()
	_ = bld.NewPlane(ms3.Vec{}, 1, red)
	if bld.Err() == nil {
		t.Error("expecting error for zero plane normal")
	}
	bld.ClearErrors()
	if bld.Err() != nil {
		t.Error("expected builder error to be cleared")
	}

	bld.SetFlags(0)
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for invalid radius without FlagNoDimensionPanic")
			}
		}()
		bld.NewSphere(0, red)
	}()
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for empty SDF operand")
			}
		}()
		bld.Union(csg.SDF{}, bld.NewSphere(1, red))
	}()
}

func TestEmptySDF(t *testing.T) {
	var s csg.SDF
	if !math32.IsInf(s.Distance(ms3.Vec{}), 1) {
		t.Error("empty SDF should be infinitely far")
	}
	if !s.Simplify().IsEmpty() {
		t.Error("simplified empty SDF should be empty")
	}
	if s.Root() != -1 {
		t.Error("empty SDF root should be -1")
	}
}

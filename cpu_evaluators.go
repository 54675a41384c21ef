package csg

import (
	"github.com/chewxy/math32"
	"github.com/soypat/csg/gleval"
	"github.com/soypat/geometry/ms3"
)

var _ gleval.ColorSDF3 = SDF{} // Interface implementation compile-time check.

// Distance returns the signed distance from p to the surface of s: negative
// inside, positive outside. An empty SDF is infinitely far away.
func (s SDF) Distance(p ms3.Vec) float32 {
	if s.IsEmpty() {
		return math32.Inf(1)
	}
	return s.distance(p, make([]float32, len(s.nodes)))
}

// distance evaluates all nodes in index order storing the results in d,
// which must have length equal to the amount of nodes.
func (s SDF) distance(p ms3.Vec, d []float32) float32 {
	for i, node := range s.nodes {
		switch node.Op {
		case OpSphere:
			d[i] = ms3.Norm(ms3.Sub(p, node.Vec)) - node.Scalar
		case OpPlane:
			d[i] = ms3.Dot(p, node.Vec) - node.Scalar
		case OpUnion:
			d[i] = minf(d[node.A], d[node.B])
		case OpIntersection:
			d[i] = maxf(d[node.A], d[node.B])
		case OpExclusion:
			a, b := d[node.A], d[node.B]
			d[i] = maxf(minf(a, b), -maxf(a, b))
		case OpSubtraction:
			d[i] = maxf(-d[node.A], d[node.B])
		default:
			panic("unknown op " + node.Op.String())
		}
	}
	return d[len(d)-1]
}

// Evaluate implements [gleval.SDF3]. If userData is a [gleval.VecPool] it is used for scratch space.
func (s SDF) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	err := gleval.CheckBuffers(pos, dist)
	if err != nil {
		return err
	}
	if s.IsEmpty() {
		inf := math32.Inf(1)
		for i := range dist {
			dist[i] = inf
		}
		return nil
	}
	var scratch []float32
	vp, err := gleval.GetVecPool(userData)
	if err == nil {
		scratch = vp.Float.Acquire(len(s.nodes))
		defer vp.Float.Release(scratch)
	} else {
		scratch = make([]float32, len(s.nodes))
	}
	for i, p := range pos {
		dist[i] = s.distance(p, scratch)
	}
	return nil
}

// EvaluateColor implements [gleval.ColorSDF3]. The color at a position is that of the
// material of the primitive which determines the distance at that position.
func (s SDF) EvaluateColor(pos []ms3.Vec, colors []ms3.Vec, userData any) error {
	err := gleval.CheckBuffers(pos, colors)
	if err != nil {
		return err
	}
	if s.IsEmpty() {
		clear(colors)
		return nil
	}
	var scratch []float32
	var mats []int
	vp, err := gleval.GetVecPool(userData)
	if err == nil {
		scratch = vp.Float.Acquire(len(s.nodes))
		mats = vp.Int.Acquire(len(s.nodes))
		defer vp.Float.Release(scratch)
		defer vp.Int.Release(mats)
	} else {
		scratch = make([]float32, len(s.nodes))
		mats = make([]int, len(s.nodes))
	}
	for i, p := range pos {
		_, mat := s.distanceMaterial(p, scratch, mats)
		colors[i] = s.materials[mat].Color()
	}
	return nil
}

// MaterialAt returns the material of the surface that determines the distance at p.
func (s SDF) MaterialAt(p ms3.Vec) Material {
	if s.IsEmpty() {
		return Material{}
	}
	_, mat := s.distanceMaterial(p, make([]float32, len(s.nodes)), make([]int, len(s.nodes)))
	return s.materials[mat]
}

// distanceMaterial is like distance but also tracks which material index
// produced each node's value.
func (s SDF) distanceMaterial(p ms3.Vec, d []float32, mats []int) (float32, int) {
	for i, node := range s.nodes {
		switch node.Op {
		case OpSphere:
			d[i] = ms3.Norm(ms3.Sub(p, node.Vec)) - node.Scalar
			mats[i] = node.A
		case OpPlane:
			d[i] = ms3.Dot(p, node.Vec) - node.Scalar
			mats[i] = node.A
		case OpUnion:
			d[i], mats[i] = pick(d[node.A] <= d[node.B], node, d, mats)
		case OpIntersection:
			d[i], mats[i] = pick(d[node.A] >= d[node.B], node, d, mats)
		case OpExclusion:
			a, b := d[node.A], d[node.B]
			inner := minf(a, b)
			outer := -maxf(a, b)
			if inner >= outer {
				_, mats[i] = pick(a <= b, node, d, mats)
				d[i] = inner
			} else {
				_, mats[i] = pick(a >= b, node, d, mats)
				d[i] = outer
			}
		case OpSubtraction:
			a, b := -d[node.A], d[node.B]
			d[i] = maxf(a, b)
			if a >= b {
				mats[i] = mats[node.A]
			} else {
				mats[i] = mats[node.B]
			}
		default:
			panic("unknown op " + node.Op.String())
		}
	}
	last := len(d) - 1
	return d[last], mats[last]
}

// pick returns the distance and material of node's first child if first is true, else the second child's.
func pick(first bool, node Node, d []float32, mats []int) (float32, int) {
	if first {
		return d[node.A], mats[node.A]
	}
	return d[node.B], mats[node.B]
}

// Bounds implements [gleval.SDF3]. Unbounded shapes such as planes
// span a very large box.
func (s SDF) Bounds() ms3.Box {
	if s.IsEmpty() {
		return ms3.Box{}
	}
	boxes := make([]ms3.Box, len(s.nodes))
	for i, node := range s.nodes {
		switch node.Op {
		case OpSphere:
			r := node.Scalar
			boxes[i] = ms3.Box{
				Min: ms3.AddScalar(-r, node.Vec),
				Max: ms3.AddScalar(r, node.Vec),
			}
		case OpPlane:
			boxes[i] = ms3.Box{
				Min: ms3.Vec{X: -largenum, Y: -largenum, Z: -largenum},
				Max: ms3.Vec{X: largenum, Y: largenum, Z: largenum},
			}
		case OpUnion, OpExclusion:
			boxes[i] = boxes[node.A].Union(boxes[node.B])
		case OpIntersection:
			boxes[i] = boxes[node.A].Intersect(boxes[node.B])
		case OpSubtraction:
			boxes[i] = boxes[node.B]
		default:
			panic("unknown op " + node.Op.String())
		}
	}
	return boxes[len(boxes)-1]
}

// Raymarch sphere-traces a ray against s. See [gleval.Raymarch].
func (s SDF) Raymarch(origin, dir ms3.Vec, cfg gleval.RaymarchConfig) (gleval.RaymarchResult, error) {
	var vp gleval.VecPool
	return gleval.Raymarch(s, origin, dir, cfg, &vp)
}

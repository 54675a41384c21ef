package csg

import (
	"errors"
	"fmt"

	"github.com/soypat/csg/glbuild"
	"github.com/soypat/geometry/ms3"
)

// AppendWire appends the fixed-size records of s's nodes and materials to
// dists and mats and returns the extended slices.
func (s SDF) AppendWire(dists []glbuild.Distance, mats []glbuild.Material) ([]glbuild.Distance, []glbuild.Material) {
	const f = glbuild.SentinelF32
	for _, node := range s.nodes {
		rec := glbuild.Distance{
			X:       uint32(node.A),
			Y:       glbuild.SentinelU32,
			Padding: glbuild.SentinelU32,
		}
		switch node.Op {
		case OpSphere:
			rec.Tag = glbuild.TagSphere
			rec.V = [4]float32{node.Vec.X, node.Vec.Y, node.Vec.Z, node.Scalar}
		case OpPlane:
			rec.Tag = glbuild.TagPlane
			rec.V = [4]float32{node.Vec.X, node.Vec.Y, node.Vec.Z, node.Scalar}
		case OpUnion, OpIntersection, OpExclusion, OpSubtraction:
			rec.Tag = opTag(node.Op)
			rec.Y = uint32(node.B)
			rec.V = [4]float32{f, f, f, f}
		default:
			panic("unknown op " + node.Op.String())
		}
		dists = append(dists, rec)
	}
	for _, m := range s.materials {
		switch m.kind {
		case MaterialFlat:
			mats = append(mats, glbuild.Material{
				Tag: glbuild.TagFlat,
				R:   m.color.X,
				G:   m.color.Y,
				B:   m.color.Z,
			})
		default:
			panic(fmt.Sprintf("unknown material kind %d", m.kind))
		}
	}
	return dists, mats
}

// ToWire returns the fixed-size records of s's nodes and materials.
func (s SDF) ToWire() ([]glbuild.Distance, []glbuild.Material) {
	return s.AppendWire(make([]glbuild.Distance, 0, len(s.nodes)), make([]glbuild.Material, 0, len(s.materials)))
}

// AppendShaderObjects appends the encoded distance and material buffers of s as
// unbound shader objects named "distances" and "materials", in that order.
// Bind them with [glbuild.BindObjects].
func (s SDF) AppendShaderObjects(objs []glbuild.ShaderObject) ([]glbuild.ShaderObject, error) {
	if s.IsEmpty() {
		return objs, errors.New("empty SDF")
	}
	dists, mats := s.ToWire()
	distObj, err := glbuild.MakeShaderBufferReadOnly([]byte("distances"), glbuild.DistanceSize, glbuild.AppendDistances(nil, dists))
	if err != nil {
		return objs, err
	}
	matObj, err := glbuild.MakeShaderBufferReadOnly([]byte("materials"), glbuild.MaterialSize, glbuild.AppendMaterials(nil, mats))
	if err != nil {
		return objs, err
	}
	return append(objs, distObj, matObj), nil
}

// FromWire reconstructs a graph from its records. The records are validated
// with [glbuild.ValidateRecords] so foreign buffers can not produce an invalid graph.
// The result is not simplified, see [SDF.Simplify].
func FromWire(dists []glbuild.Distance, mats []glbuild.Material) (SDF, error) {
	err := glbuild.ValidateRecords(dists, mats)
	if err != nil {
		return SDF{}, err
	}
	s := SDF{
		nodes:     make([]Node, len(dists)),
		materials: make([]Material, len(mats)),
	}
	for i, m := range mats {
		s.materials[i] = FlatRGB(m.R, m.G, m.B)
	}
	for i, rec := range dists {
		node := Node{A: int(rec.X)}
		switch rec.Tag {
		case glbuild.TagSphere, glbuild.TagPlane:
			node.Op = OpSphere
			if rec.Tag == glbuild.TagPlane {
				node.Op = OpPlane
			}
			node.Vec = ms3.Vec{X: rec.V[0], Y: rec.V[1], Z: rec.V[2]}
			node.Scalar = rec.V[3]
		case glbuild.TagUnion:
			node.Op, node.B = OpUnion, int(rec.Y)
		case glbuild.TagIntersection:
			node.Op, node.B = OpIntersection, int(rec.Y)
		case glbuild.TagExclusion:
			node.Op, node.B = OpExclusion, int(rec.Y)
		case glbuild.TagSubtraction:
			node.Op, node.B = OpSubtraction, int(rec.Y)
		}
		s.nodes[i] = node
	}
	return s, nil
}

func opTag(op Op) glbuild.Tag {
	switch op {
	case OpUnion:
		return glbuild.TagUnion
	case OpIntersection:
		return glbuild.TagIntersection
	case OpExclusion:
		return glbuild.TagExclusion
	case OpSubtraction:
		return glbuild.TagSubtraction
	}
	panic("not an operation: " + op.String())
}

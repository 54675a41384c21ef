package csg

import (
	"github.com/soypat/geometry/ms3"
)

// Union joins the shapes of a and b. Is exact outside the shapes.
func (bld *Builder) Union(a, b SDF) SDF {
	if a.IsEmpty() || b.IsEmpty() {
		bld.nilsdf("Union")
	}
	return combine(OpUnion, a, b)
}

// Intersection keeps the region inside both a and b. Does not produce an exact SDF.
func (bld *Builder) Intersection(a, b SDF) SDF {
	if a.IsEmpty() || b.IsEmpty() {
		bld.nilsdf("Intersection")
	}
	return combine(OpIntersection, a, b)
}

// Exclusion keeps the region inside exactly one of a and b (symmetric difference, XOR).
func (bld *Builder) Exclusion(a, b SDF) SDF {
	if a.IsEmpty() || b.IsEmpty() {
		bld.nilsdf("Exclusion")
	}
	return combine(OpExclusion, a, b)
}

// Subtraction evaluates to max(-d(a), d(b)), which is the region of b that lies outside of a.
func (bld *Builder) Subtraction(a, b SDF) SDF {
	if a.IsEmpty() || b.IsEmpty() {
		bld.nilsdf("Subtraction")
	}
	return combine(OpSubtraction, a, b)
}

// Translate moves s by (x,y,z). Sphere centers are displaced and plane offsets
// adjusted by the component of the displacement along their normal.
// Operation nodes carry no spatial data and are left untouched.
func (bld *Builder) Translate(s SDF, x, y, z float32) SDF {
	if s.IsEmpty() {
		bld.nilsdf("Translate")
	}
	v := ms3.Vec{X: x, Y: y, Z: z}
	if !isFinite(x) || !isFinite(y) || !isFinite(z) {
		bld.shapeErrorf("non-finite translation %v", v)
	}
	out := SDF{
		nodes:     make([]Node, len(s.nodes)),
		materials: make([]Material, len(s.materials)),
	}
	copy(out.materials, s.materials)
	for i, node := range s.nodes {
		switch node.Op {
		case OpSphere:
			node.Vec = ms3.Add(node.Vec, v)
		case OpPlane:
			node.Scalar += ms3.Dot(v, node.Vec)
		case OpUnion, OpIntersection, OpExclusion, OpSubtraction:
			// No spatial data.
		default:
			panic("unknown op " + node.Op.String())
		}
		out.nodes[i] = node
	}
	return out
}

// combine creates the graph of op(a, b). b's nodes are appended after a's with
// their indices rebased and the new operation node becomes the root.
func combine(op Op, a, b SDF) SDF {
	rootA := a.Root()
	out := SDF{
		nodes:     make([]Node, 0, len(a.nodes)+len(b.nodes)+1),
		materials: make([]Material, 0, len(a.materials)+len(b.materials)),
	}
	out.nodes = append(out.nodes, a.nodes...)
	out.materials = append(out.materials, a.materials...)
	out = out.appendRebased(b)
	out.nodes = append(out.nodes, Node{Op: op, A: rootA, B: out.Root()})
	return out.simplify()
}

// appendRebased appends other's nodes and materials to s, shifting node
// indices by the amount of nodes in s and material indices by the amount of materials in s.
func (s SDF) appendRebased(other SDF) SDF {
	nodeOffset := len(s.nodes)
	materialOffset := len(s.materials)
	s.materials = append(s.materials, other.materials...)
	for _, node := range other.nodes {
		if node.Op.IsPrimitive() {
			node.A += materialOffset
		} else {
			node.A += nodeOffset
			node.B += nodeOffset
		}
		s.nodes = append(s.nodes, node)
	}
	return s
}

package csg

import (
	"image/color"
	"slices"
	"strconv"

	"github.com/soypat/geometry/ms3"
)

// Op is the kind of a [Node].
type Op uint8

const (
	OpSphere Op = iota
	OpPlane
	OpUnion
	OpIntersection
	OpExclusion
	OpSubtraction
)

// IsPrimitive reports whether op is a primitive shape with no children.
func (op Op) IsPrimitive() bool { return op == OpSphere || op == OpPlane }

func (op Op) String() string {
	switch op {
	case OpSphere:
		return "sphere"
	case OpPlane:
		return "plane"
	case OpUnion:
		return "union"
	case OpIntersection:
		return "intersection"
	case OpExclusion:
		return "exclusion"
	case OpSubtraction:
		return "subtraction"
	}
	return "Op(" + strconv.Itoa(int(op)) + ")"
}

// Node is one entry of an [SDF] graph. Nodes are comparable and two nodes of
// the same graph are structurally equal when they compare equal with ==.
type Node struct {
	Op Op
	// A is the material index for primitives or the first child index for operations.
	A int
	// B is the second child index for operations. Always zero for primitives.
	B int
	// Vec is the sphere center or the unit plane normal. Zero for operations.
	Vec ms3.Vec
	// Scalar is the sphere radius or the plane offset. Zero for operations.
	Scalar float32
}

// MaterialKind is the kind of a [Material].
type MaterialKind uint8

const (
	// MaterialFlat colors a surface uniformly.
	MaterialFlat MaterialKind = iota
)

// Material describes how a surface is colored. Materials are comparable.
type Material struct {
	kind MaterialKind
	// RGB in [0,1] range.
	color ms3.Vec
}

// Flat returns a material that colors the whole surface with c. Alpha is ignored.
func Flat(c color.Color) Material {
	r, g, b, _ := c.RGBA()
	const inv = 1. / 0xffff
	return FlatRGB(float32(r)*inv, float32(g)*inv, float32(b)*inv)
}

// FlatRGB returns a flat material with color components in the [0,1] range.
func FlatRGB(r, g, b float32) Material {
	return Material{kind: MaterialFlat, color: ms3.Vec{X: r, Y: g, Z: b}}
}

// Kind returns the material's kind.
func (m Material) Kind() MaterialKind { return m.kind }

// Color returns the material's RGB color with components in the [0,1] range.
func (m Material) Color() ms3.Vec { return m.color }

// RGBA returns the material's color as an opaque [color.RGBA].
func (m Material) RGBA() color.RGBA {
	return color.RGBA{
		R: unitToByte(m.color.X),
		G: unitToByte(m.color.Y),
		B: unitToByte(m.color.Z),
		A: 255,
	}
}

func unitToByte(f float32) uint8 {
	if !(f > 0) {
		return 0
	} else if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}

// SDF is a signed distance field stored as a DAG of [Node]s plus the
// materials they reference. The root is the last node.
//
// SDFs are immutable: combinators in [Builder] never modify their operands
// and always return a graph with its own storage, so an SDF may be evaluated
// concurrently and reused as an operand any number of times.
// The zero SDF is empty and is not a valid operand.
type SDF struct {
	nodes     []Node
	materials []Material
}

// NumNodes returns the amount of nodes in the graph.
func (s SDF) NumNodes() int { return len(s.nodes) }

// NumMaterials returns the amount of materials in the graph.
func (s SDF) NumMaterials() int { return len(s.materials) }

// IsEmpty reports whether the SDF has no nodes, as is the case for the zero value.
func (s SDF) IsEmpty() bool { return len(s.nodes) == 0 }

// Root returns the index of the root node, or -1 for an empty SDF.
func (s SDF) Root() int { return len(s.nodes) - 1 }

// Node returns the i'th node of the graph.
func (s SDF) Node(i int) Node { return s.nodes[i] }

// Material returns the i'th material of the graph.
func (s SDF) Material(i int) Material { return s.materials[i] }

// Nodes returns a copy of the graph's nodes in evaluation order.
func (s SDF) Nodes() []Node { return slices.Clone(s.nodes) }

// Materials returns a copy of the graph's materials.
func (s SDF) Materials() []Material { return slices.Clone(s.materials) }

// Equal reports whether s and other have identical nodes and materials.
func (s SDF) Equal(other SDF) bool {
	return slices.Equal(s.nodes, other.nodes) && slices.Equal(s.materials, other.materials)
}

// CountOp returns the amount of nodes of kind op in the graph.
func (s SDF) CountOp(op Op) (n int) {
	for i := range s.nodes {
		if s.nodes[i].Op == op {
			n++
		}
	}
	return n
}

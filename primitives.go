package csg

import (
	"github.com/chewxy/math32"
	"github.com/soypat/csg/gleval"
	"github.com/soypat/geometry/ms3"
)

// NewSphere creates a sphere centered at the origin of radius r colored by material.
func (bld *Builder) NewSphere(r float32, material Material) SDF {
	valid := r > 0 && isFinite(r)
	if !valid {
		bld.shapeErrorf("zero, negative or non-finite sphere radius %v", r)
	}
	return SDF{
		nodes:     []Node{{Op: OpSphere, A: 0, Scalar: r}},
		materials: []Material{material},
	}
}

// NewPlane creates the half-space bounded by the plane {p : dot(p, normal) = offset}.
// The distance is negative on the side opposite to normal.
// normal need not be unit length; it is normalized and offset scaled
// accordingly so that the described plane is preserved.
func (bld *Builder) NewPlane(normal ms3.Vec, offset float32, material Material) SDF {
	if !isFinite(offset) {
		bld.shapeErrorf("non-finite plane offset %v", offset)
	}
	n := ms3.Norm(normal)
	unit, err := gleval.Normalize(normal)
	if err != nil {
		bld.shapeErrorf("plane normal %v: %s", normal, err)
		unit = normal
	} else if math32.Abs(n-1) > epstol {
		offset /= n
	}
	return SDF{
		nodes:     []Node{{Op: OpPlane, A: 0, Vec: unit, Scalar: offset}},
		materials: []Material{material},
	}
}

package gleval

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// ErrDegenerateVector is returned when a vector with zero or non-finite length
// is used where a direction is required.
var ErrDegenerateVector = errors.New("degenerate vector: zero or non-finite length")

// Normalize returns v scaled to unit length. It returns [ErrDegenerateVector]
// instead of a NaN vector when v has zero or non-finite length.
func Normalize(v ms3.Vec) (ms3.Vec, error) {
	n := ms3.Norm(v)
	if n == 0 || math32.IsNaN(n) || math32.IsInf(n, 0) {
		return ms3.Vec{}, ErrDegenerateVector
	}
	return ms3.Scale(1/n, v), nil
}

// Cross returns the cross product a×b.
func Cross(a, b ms3.Vec) ms3.Vec {
	return ms3.Vec{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// Package csg implements a Constructive Solid Geometry engine over signed
// distance fields. Shapes are stored as a deduplicated directed acyclic graph
// of primitive and boolean operation nodes addressed by index, where every node
// only references nodes that come before it. The last node is the root.
//
// Adding a new primitive or operation requires updating the evaluator
// (cpu_evaluators.go), the wire conversion (wire.go) and the [Builder] constructors.
package csg

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

const (
	largenum = 1e20
	// epstol is used to check for badly conditioned denominators
	// such as lengths used for normalization.
	epstol = 6e-7
)

// Flags modifies [Builder] behaviour.
type Flags uint64

const (
	// FlagNoDimensionPanic makes the [Builder] accumulate invalid dimension
	// errors instead of panicking. Errors are retrieved with [Builder.Err].
	FlagNoDimensionPanic Flags = 1 << iota
)

// Builder wraps all SDF primitive and operation logic generation.
// Provides error handling strategies with panics or error accumulation during shape generation.
// The zero value is ready to use and panics on invalid dimensions.
type Builder struct {
	flags     Flags
	accumErrs []error
}

// SetFlags sets the Builder's flags, replacing the previous ones.
func (bld *Builder) SetFlags(flags Flags) { bld.flags = flags }

// Flags returns the Builder's current flags.
func (bld *Builder) Flags() Flags { return bld.flags }

// Err returns the accumulated shape errors joined together, or nil if there are none.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

// ClearErrors discards all accumulated errors.
func (bld *Builder) ClearErrors() {
	bld.accumErrs = bld.accumErrs[:0]
}

func (bld *Builder) shapeErrorf(msg string, args ...any) {
	if bld.flags&FlagNoDimensionPanic == 0 {
		panic(fmt.Sprintf(msg, args...))
	}
	bld.accumErrs = append(bld.accumErrs, fmt.Errorf(msg, args...))
}

func (*Builder) nilsdf(msg string) {
	panic("empty SDF argument: " + msg)
}

func isFinite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

func minf(a, b float32) float32 {
	return math32.Min(a, b)
}

func maxf(a, b float32) float32 {
	return math32.Max(a, b)
}

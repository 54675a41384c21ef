package gleval

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/soypat/geometry/ms3"
)

// VecPool provides reusable scratch buffers to evaluators so that repeated
// evaluations do not allocate. A VecPool is not safe for concurrent use.
type VecPool struct {
	V3    bufPool[ms3.Vec]
	Float bufPool[float32]
	Int   bufPool[int]
}

// GetVecPool extracts a [VecPool] from userData. userData may be a *VecPool
// or implement a VecPool() *VecPool method.
func GetVecPool(userData any) (*VecPool, error) {
	switch ud := userData.(type) {
	case *VecPool:
		if ud == nil {
			return nil, errors.New("nil *VecPool")
		}
		return ud, nil
	case interface{ VecPool() *VecPool }:
		vp := ud.VecPool()
		if vp == nil {
			return nil, errors.New("nil VecPool from userData")
		}
		return vp, nil
	case nil:
		return nil, errors.New("nil userData, want *gleval.VecPool")
	}
	return nil, fmt.Errorf("want userData type *gleval.VecPool, got %T", userData)
}

// AssertAllReleased returns an error if any buffer in the pool has not been released.
// Useful in tests to catch buffer leaks.
func (vp *VecPool) AssertAllReleased() error {
	if n := vp.V3.acquiredCount(); n > 0 {
		return fmt.Errorf("%d V3 buffers not released", n)
	}
	if n := vp.Float.acquiredCount(); n > 0 {
		return fmt.Errorf("%d Float buffers not released", n)
	}
	if n := vp.Int.acquiredCount(); n > 0 {
		return fmt.Errorf("%d Int buffers not released", n)
	}
	return nil
}

type bufPool[T any] struct {
	_ins      [][]T
	_acquired []bool
}

// Acquire returns a buffer of the requested length. Contents are not zeroed.
// The buffer must be returned with Release once the caller is done with it.
func (bp *bufPool[T]) Acquire(length int) []T {
	for i, locked := range bp._acquired {
		if !locked && len(bp._ins[i]) >= length {
			bp._acquired[i] = true
			return bp._ins[i][:length]
		}
	}
	newSlice := make([]T, max(length, 1))
	bp._ins = append(bp._ins, newSlice)
	bp._acquired = append(bp._acquired, true)
	return newSlice[:length]
}

// Release returns a buffer acquired with Acquire to the pool.
func (bp *bufPool[T]) Release(buf []T) error {
	ptr := unsafe.SliceData(buf)
	for i, instance := range bp._ins {
		if unsafe.SliceData(instance) == ptr {
			if !bp._acquired[i] {
				return errors.New("release of unacquired resource")
			}
			bp._acquired[i] = false
			return nil
		}
	}
	return errors.New("resource to release not found in pool")
}

func (bp *bufPool[T]) acquiredCount() (n int) {
	for _, locked := range bp._acquired {
		if locked {
			n++
		}
	}
	return n
}

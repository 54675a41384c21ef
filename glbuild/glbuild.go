// Package glbuild defines the binary interchange format between a csg graph
// and a parallel evaluator such as a GPU shader: fixed-size distance and
// material records, the per-frame uniforms block and the buffer objects that
// carry them.
//
// All encodings are little-endian. Every field is 4 bytes wide.
package glbuild

import (
	"bytes"
	"errors"
	"fmt"
)

// ShaderObject is a handle to data needed by a parallel evaluator.
// A ShaderObject represents a Shader Storage Buffer Object (SSBO),
// a 1D array of fixed-size structured records.
type ShaderObject struct {
	// NamePtr is the name of the buffer as referenced by the evaluator.
	NamePtr []byte
	// ElementSize is the size in bytes of one record.
	ElementSize int
	// Data is the encoded buffer contents.
	Data []byte
	// Binding specifies the resource's binding point during shader execution.
	// Binding should be equal to -1 until the final binding point is allocated by [BindObjects].
	Binding int
}

// MakeShaderBufferReadOnly creates an unbound [ShaderObject] holding encoded records of elemSize bytes.
func MakeShaderBufferReadOnly(name []byte, elemSize int, data []byte) (ShaderObject, error) {
	ssbo := ShaderObject{
		NamePtr:     name,
		ElementSize: elemSize,
		Data:        data,
		Binding:     -1,
	}
	err := ssbo.validate()
	if err != nil {
		return ShaderObject{}, err
	}
	return ssbo, nil
}

// Len returns the amount of records in the buffer.
func (obj ShaderObject) Len() int {
	if obj.ElementSize <= 0 {
		return 0
	}
	return len(obj.Data) / obj.ElementSize
}

// Validate checks the shader object is fully formed and bound.
func (obj ShaderObject) Validate() error {
	err := obj.validate()
	if err != nil {
		return err
	} else if obj.Binding < 0 {
		return errors.New("shader object negative binding point")
	}
	return nil
}

func (obj ShaderObject) validate() error {
	if len(obj.NamePtr) == 0 {
		return errors.New("shader object zero-length name")
	} else if obj.ElementSize <= 0 {
		return errors.New("shader object zero/negative element size")
	} else if len(obj.Data) == 0 {
		return errors.New("shader object zero-length data")
	} else if len(obj.Data)%obj.ElementSize != 0 {
		return fmt.Errorf("shader object %q data length %d not a multiple of element size %d", obj.NamePtr, len(obj.Data), obj.ElementSize)
	}
	return nil
}

// BindObjects allocates binding points starting at startBase to objects with
// a binding of -1, in order. Objects sharing a name with identical contents are
// collapsed into one. Objects sharing a name with distinct contents are a conflict.
// The returned slice reuses the storage of objs.
func BindObjects(objs []ShaderObject, startBase int) ([]ShaderObject, error) {
	if startBase < 0 {
		return nil, errors.New("negative start binding")
	}
	names := make(map[string]int, len(objs))
	currentBase := startBase
	out := objs[:0]
OBJWRITE:
	for i := range objs {
		obj := objs[i]
		err := obj.validate()
		if err != nil {
			return nil, err
		}
		if j, nameConflict := names[string(obj.NamePtr)]; nameConflict {
			old := out[j]
			if old.ElementSize == obj.ElementSize && bytes.Equal(old.Data, obj.Data) {
				continue OBJWRITE // Identical duplicate, already bound.
			}
			return nil, fmt.Errorf("shader buffer object name conflict: %q with distinct contents", obj.NamePtr)
		}
		if obj.Binding == -1 {
			obj.Binding = currentBase
			currentBase++
		} else if obj.Binding < 0 {
			return nil, fmt.Errorf("shader buffer %q invalid binding %d", obj.NamePtr, obj.Binding)
		}
		names[string(obj.NamePtr)] = len(out)
		out = append(out, obj)
	}
	return out, nil
}

package glbuild

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/soypat/geometry/ms3"
)

// UniformsSize is the size in bytes of the encoded [Uniforms] block.
const UniformsSize = 64

// Camera is the host camera as laid out in the uniforms block.
type Camera struct {
	Pos ms3.Vec
	Dir ms3.Vec
}

// Uniforms is the per-frame parameter block bound next to the distance and
// material buffers. vec3 members are 16-byte aligned:
//
//	offset  0: WindowWidth  float32
//	offset  4: WindowHeight float32
//	offset  8: Seconds      float32
//	offset 12: MinDist      float32
//	offset 16: MaxDist      float32
//	offset 20: MaxIter      uint32
//	offset 32: Camera.Pos   vec3 (+4 bytes padding)
//	offset 48: Camera.Dir   vec3 (+4 bytes padding)
type Uniforms struct {
	WindowWidth  float32
	WindowHeight float32
	Seconds      float32
	MinDist      float32
	MaxDist      float32
	MaxIter      uint32
	Camera       Camera
}

// AppendBinary appends the little-endian encoding of u to b. Padding bytes are zero.
func (u Uniforms) AppendBinary(b []byte) ([]byte, error) {
	if u.WindowWidth < 0 || u.WindowHeight < 0 {
		return b, errors.New("negative window dimension")
	}
	le := binary.LittleEndian
	b = le.AppendUint32(b, math.Float32bits(u.WindowWidth))
	b = le.AppendUint32(b, math.Float32bits(u.WindowHeight))
	b = le.AppendUint32(b, math.Float32bits(u.Seconds))
	b = le.AppendUint32(b, math.Float32bits(u.MinDist))
	b = le.AppendUint32(b, math.Float32bits(u.MaxDist))
	b = le.AppendUint32(b, u.MaxIter)
	b = append(b, make([]byte, 8)...) // Align camera to 16 bytes.
	b = appendVec3Padded(b, u.Camera.Pos)
	b = appendVec3Padded(b, u.Camera.Dir)
	return b, nil
}

// DecodeUniforms decodes a block encoded with [Uniforms.AppendBinary].
func DecodeUniforms(b []byte) (u Uniforms, err error) {
	if len(b) < UniformsSize {
		return u, errors.New("short uniforms buffer")
	}
	le := binary.LittleEndian
	f := func(off int) float32 { return math.Float32frombits(le.Uint32(b[off:])) }
	u = Uniforms{
		WindowWidth:  f(0),
		WindowHeight: f(4),
		Seconds:      f(8),
		MinDist:      f(12),
		MaxDist:      f(16),
		MaxIter:      le.Uint32(b[20:]),
		Camera: Camera{
			Pos: ms3.Vec{X: f(32), Y: f(36), Z: f(40)},
			Dir: ms3.Vec{X: f(48), Y: f(52), Z: f(56)},
		},
	}
	return u, nil
}

func appendVec3Padded(b []byte, v ms3.Vec) []byte {
	le := binary.LittleEndian
	b = le.AppendUint32(b, math.Float32bits(v.X))
	b = le.AppendUint32(b, math.Float32bits(v.Y))
	b = le.AppendUint32(b, math.Float32bits(v.Z))
	return append(b, 0, 0, 0, 0)
}

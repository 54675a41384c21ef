package glbuild

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Tag identifies the kind of a [Distance] record.
type Tag uint32

// Distance record tags. Values are part of the wire format and must not change.
const (
	TagSphere Tag = iota
	TagPlane
	TagUnion
	TagIntersection
	TagExclusion
	TagSubtraction
)

// IsPrimitive reports whether records with this tag describe a primitive shape.
func (t Tag) IsPrimitive() bool { return t == TagSphere || t == TagPlane }

// IsOperation reports whether records with this tag combine two earlier records.
func (t Tag) IsOperation() bool { return t >= TagUnion && t <= TagSubtraction }

func (t Tag) String() string {
	switch t {
	case TagSphere:
		return "sphere"
	case TagPlane:
		return "plane"
	case TagUnion:
		return "union"
	case TagIntersection:
		return "intersection"
	case TagExclusion:
		return "exclusion"
	case TagSubtraction:
		return "subtraction"
	}
	return "Tag(" + strconv.FormatUint(uint64(t), 10) + ")"
}

// MaterialTag identifies the kind of a [Material] record.
type MaterialTag uint32

const (
	// TagFlat is a constant color material.
	TagFlat MaterialTag = 0
)

// Sentinel values stored in unused record fields.
const (
	SentinelU32 uint32  = 0xDEAD_BEEF
	SentinelF32 float32 = -12.34
)

// Record sizes in bytes.
const (
	DistanceSize = 32
	MaterialSize = 16
)

// Distance is the fixed-size record of one graph node as consumed by a parallel evaluator.
// Layout, all fields little-endian and 4 bytes wide:
//
//	offset  0: Tag
//	offset  4: X        material index (primitives) or left child index (operations)
//	offset  8: Y        right child index (operations) or SentinelU32
//	offset 12: Padding  always SentinelU32
//	offset 16: V[0..3]  center.xyz,radius (sphere); normal.xyz,offset (plane); SentinelF32 (operations)
type Distance struct {
	Tag     Tag
	X       uint32
	Y       uint32
	Padding uint32
	V       [4]float32
}

// Material is the fixed-size record of a material.
// Layout: Tag at offset 0 followed by R, G, B float32 in the [0,1] range.
type Material struct {
	Tag     MaterialTag
	R, G, B float32
}

// AppendDistances appends the little-endian encoding of the records to dst.
func AppendDistances(dst []byte, records []Distance) []byte {
	le := binary.LittleEndian
	for _, r := range records {
		dst = le.AppendUint32(dst, uint32(r.Tag))
		dst = le.AppendUint32(dst, r.X)
		dst = le.AppendUint32(dst, r.Y)
		dst = le.AppendUint32(dst, r.Padding)
		for _, v := range r.V {
			dst = le.AppendUint32(dst, math.Float32bits(v))
		}
	}
	return dst
}

// AppendMaterials appends the little-endian encoding of the records to dst.
func AppendMaterials(dst []byte, records []Material) []byte {
	le := binary.LittleEndian
	for _, r := range records {
		dst = le.AppendUint32(dst, uint32(r.Tag))
		dst = le.AppendUint32(dst, math.Float32bits(r.R))
		dst = le.AppendUint32(dst, math.Float32bits(r.G))
		dst = le.AppendUint32(dst, math.Float32bits(r.B))
	}
	return dst
}

// DecodeDistances decodes the records in b and appends them to dst.
// len(b) must be a multiple of [DistanceSize]. Records are not validated, see [ValidateRecords].
func DecodeDistances(dst []Distance, b []byte) ([]Distance, error) {
	if len(b)%DistanceSize != 0 {
		return dst, fmt.Errorf("distance buffer length %d not a multiple of %d", len(b), DistanceSize)
	}
	le := binary.LittleEndian
	for ; len(b) > 0; b = b[DistanceSize:] {
		var r Distance
		r.Tag = Tag(le.Uint32(b[0:]))
		r.X = le.Uint32(b[4:])
		r.Y = le.Uint32(b[8:])
		r.Padding = le.Uint32(b[12:])
		for i := range r.V {
			r.V[i] = math.Float32frombits(le.Uint32(b[16+4*i:]))
		}
		dst = append(dst, r)
	}
	return dst, nil
}

// DecodeMaterials decodes the records in b and appends them to dst.
// len(b) must be a multiple of [MaterialSize].
func DecodeMaterials(dst []Material, b []byte) ([]Material, error) {
	if len(b)%MaterialSize != 0 {
		return dst, fmt.Errorf("material buffer length %d not a multiple of %d", len(b), MaterialSize)
	}
	le := binary.LittleEndian
	for ; len(b) > 0; b = b[MaterialSize:] {
		dst = append(dst, Material{
			Tag: MaterialTag(le.Uint32(b[0:])),
			R:   math.Float32frombits(le.Uint32(b[4:])),
			G:   math.Float32frombits(le.Uint32(b[8:])),
			B:   math.Float32frombits(le.Uint32(b[12:])),
		})
	}
	return dst, nil
}

// ValidateRecords checks that records form a valid graph: known tags, operation
// children referencing strictly earlier records, material indices in range and
// sentinel values in unused fields. The root is the last distance record.
func ValidateRecords(distances []Distance, materials []Material) error {
	if len(distances) == 0 {
		return errors.New("no distance records")
	}
	for i, m := range materials {
		if m.Tag != TagFlat {
			return fmt.Errorf("material %d: unknown tag %d", i, m.Tag)
		}
	}
	for i, d := range distances {
		if d.Padding != SentinelU32 {
			return fmt.Errorf("distance %d: padding %#x, want sentinel", i, d.Padding)
		}
		switch {
		case d.Tag.IsPrimitive():
			if int64(d.X) >= int64(len(materials)) {
				return fmt.Errorf("distance %d: material index %d out of range [0,%d)", i, d.X, len(materials))
			} else if d.Y != SentinelU32 {
				return fmt.Errorf("distance %d: unused operand %#x, want sentinel", i, d.Y)
			}
		case d.Tag.IsOperation():
			if int64(d.X) >= int64(i) || int64(d.Y) >= int64(i) {
				return fmt.Errorf("distance %d: %s children (%d,%d) must reference earlier records", i, d.Tag, d.X, d.Y)
			}
			for _, v := range d.V {
				if math.Float32bits(v) != math.Float32bits(SentinelF32) {
					return fmt.Errorf("distance %d: %s payload %v, want sentinel", i, d.Tag, d.V)
				}
			}
		default:
			return fmt.Errorf("distance %d: unknown tag %d", i, d.Tag)
		}
	}
	return nil
}

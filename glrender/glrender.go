// Package glrender turns signed distance fields into images by raymarching
// or by sampling planar slices.
package glrender

import (
	"errors"
	"math"

	"github.com/chewxy/math32"
	"github.com/soypat/csg/gleval"
	"github.com/soypat/geometry/ms3"
)

// DefaultFOV is the vertical field of view in radians used when a [Camera] has none set.
const DefaultFOV = math.Pi / 3

// Orbit parameters of the demo camera.
const (
	orbitRadius    = 1
	orbitDistance  = -5
	orbitFrequency = 0.1 // Revolutions per second.
)

// Camera is a pinhole camera. Rays originate at Pos and fan out around Dir.
type Camera struct {
	Pos ms3.Vec
	// Dir is the viewing direction. Need not be unit length.
	Dir ms3.Vec
	// Up is the approximate up direction of the image. If zero or parallel
	// to Dir the Y axis is used, or Z if Dir is along Y.
	Up ms3.Vec
	// FOV is the vertical field of view in radians. If zero [DefaultFOV] is used.
	FOV float32
}

// OrbitCamera returns the demo camera at time seconds. It circles the Z axis
// in the z=-5 plane with unit radius looking towards +Z, completing a
// revolution every 10 seconds.
func OrbitCamera(seconds float32) Camera {
	angle := seconds * 2 * math.Pi * orbitFrequency
	sin, cos := math32.Sincos(angle)
	return Camera{
		Pos: ms3.Vec{X: orbitRadius * cos, Y: orbitRadius * sin, Z: orbitDistance},
		Dir: ms3.Vec{Z: 1},
		Up:  ms3.Vec{Y: 1},
	}
}

// basis returns the orthonormal camera frame.
func (cam Camera) basis() (forward, right, up ms3.Vec, err error) {
	forward, err = gleval.Normalize(cam.Dir)
	if err != nil {
		return forward, right, up, errors.New("camera direction: " + err.Error())
	}
	worldUp := cam.Up
	if worldUp == (ms3.Vec{}) {
		worldUp = ms3.Vec{Y: 1}
	}
	right, err = gleval.Normalize(gleval.Cross(worldUp, forward))
	if err != nil {
		// Up parallel to view direction.
		worldUp = ms3.Vec{Y: 1}
		if math32.Abs(forward.Y) > 0.999 {
			worldUp = ms3.Vec{Z: 1}
		}
		right, err = gleval.Normalize(gleval.Cross(worldUp, forward))
		if err != nil {
			return forward, right, up, err
		}
	}
	up = gleval.Cross(forward, right)
	return forward, right, up, nil
}

// AppendRays appends the origin and direction of each pixel's ray in image
// row y of a width×height image. Row 0 is the top of the image.
// Directions are unit length.
func (cam Camera) AppendRays(origins, dirs []ms3.Vec, width, height, y int) ([]ms3.Vec, []ms3.Vec, error) {
	if width <= 0 || height <= 0 {
		return origins, dirs, errors.New("non-positive image dimensions")
	} else if y < 0 || y >= height {
		return origins, dirs, errors.New("row out of image range")
	}
	forward, right, up, err := cam.basis()
	if err != nil {
		return origins, dirs, err
	}
	fov := cam.FOV
	if fov == 0 {
		fov = DefaultFOV
	} else if !(fov > 0 && fov < math.Pi) {
		return origins, dirs, errors.New("camera field of view must be in (0, pi)")
	}
	halfHeight := math32.Tan(fov / 2)
	halfWidth := halfHeight * float32(width) / float32(height)
	v := halfHeight * (1 - 2*(float32(y)+0.5)/float32(height))
	rowCenter := ms3.Add(forward, ms3.Scale(v, up))
	for x := 0; x < width; x++ {
		u := halfWidth * (2*(float32(x)+0.5)/float32(width) - 1)
		dir := ms3.Unit(ms3.Add(rowCenter, ms3.Scale(u, right)))
		origins = append(origins, cam.Pos)
		dirs = append(dirs, dir)
	}
	return origins, dirs, nil
}

package glrender_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/csg"
	"github.com/soypat/csg/gleval"
	"github.com/soypat/csg/glrender"
	"github.com/soypat/geometry/ms3"
)

func demoScene() csg.SDF {
	var bld csg.Builder
	red := csg.FlatRGB(1, 0, 0)
	green := csg.FlatRGB(0, 1, 0)
	return bld.Union(bld.NewSphere(1, red), bld.Translate(bld.NewSphere(1, green), 1, 0, 0))
}

func TestOrbitCamera(t *testing.T) {
	const tol = 1e-5
	var tests = []struct {
		seconds float32
		want    ms3.Vec
	}{
		{seconds: 0, want: ms3.Vec{X: 1, Z: -5}},
		{seconds: 2.5, want: ms3.Vec{Y: 1, Z: -5}},
		{seconds: 5, want: ms3.Vec{X: -1, Z: -5}},
		{seconds: 10, want: ms3.Vec{X: 1, Z: -5}},
	}
	for _, test := range tests {
		cam := glrender.OrbitCamera(test.seconds)
		if ms3.Norm(ms3.Sub(cam.Pos, test.want)) > tol {
			t.Errorf("t=%v: got position %v, want %v", test.seconds, cam.Pos, test.want)
		}
		if cam.Dir != (ms3.Vec{Z: 1}) {
			t.Errorf("t=%v: direction %v, want +Z", test.seconds, cam.Dir)
		}
	}
}

func TestAppendRays(t *testing.T) {
	cam := glrender.Camera{Pos: ms3.Vec{Z: -5}, Dir: ms3.Vec{Z: 2}}
	const w, h = 5, 3
	origins, dirs, err := cam.AppendRays(nil, nil, w, h, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(origins) != w || len(dirs) != w {
		t.Fatalf("want %d rays, got %d", w, len(dirs))
	}
	// Center pixel of the middle row looks straight ahead.
	if ms3.Norm(ms3.Sub(dirs[2], ms3.Vec{Z: 1})) > 1e-6 {
		t.Errorf("center ray: got %v", dirs[2])
	}
	for i, d := range dirs {
		if math32.Abs(ms3.Norm(d)-1) > 1e-5 {
			t.Errorf("ray %d not unit: %v", i, d)
		}
		if origins[i] != cam.Pos {
			t.Errorf("ray %d origin %v", i, origins[i])
		}
	}
	// Leftmost pixel looks towards -X, top row towards +Y.
	if dirs[0].X >= 0 || dirs[w-1].X <= 0 {
		t.Errorf("horizontal orientation: left %v right %v", dirs[0], dirs[w-1])
	}
	_, top, _ := cam.AppendRays(nil, nil, w, h, 0)
	if top[2].Y <= 0 {
		t.Errorf("top row should look up, got %v", top[2])
	}
	// Camera looking along the default up vector still has a valid frame.
	upcam := glrender.Camera{Dir: ms3.Vec{Y: -1}}
	_, _, err = upcam.AppendRays(nil, nil, w, h, 0)
	if err != nil {
		t.Errorf("camera along Y: %s", err)
	}
	var bad = []glrender.Camera{
		{Dir: ms3.Vec{}},
		{Dir: ms3.Vec{Z: 1}, FOV: -1},
	}
	for _, cam := range bad {
		_, _, err = cam.AppendRays(nil, nil, w, h, 0)
		if err == nil {
			t.Errorf("%+v: expected error", cam)
		}
	}
	_, _, err = cam.AppendRays(nil, nil, w, h, h)
	if err == nil {
		t.Error("expected error for row out of range")
	}
}

func TestRaymarchRenderer(t *testing.T) {
	scene := demoScene()
	rr, err := glrender.NewRaymarchRenderer(gleval.DefaultRaymarchConfig())
	if err != nil {
		t.Fatal(err)
	}
	const w, h = 33, 25
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var vp gleval.VecPool
	cam := glrender.Camera{Pos: ms3.Vec{Z: -5}, Dir: ms3.Vec{Z: 1}}
	err = rr.Render(scene, img, cam, &vp)
	if err != nil {
		t.Fatal(err)
	}
	if err := vp.AssertAllReleased(); err != nil {
		t.Error(err)
	}
	// Center ray hits the red sphere at z=-1 where the green sphere is still 0.41 away.
	if got := img.RGBAAt(w/2, h/2); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("center pixel: got %v, want red", got)
	}
	// Right of center the green sphere is closer to the camera.
	if got := img.RGBAAt(w/2+5, h/2); got != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("right pixel: got %v, want green", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{A: 255}) {
		t.Errorf("corner pixel: got %v, want black background", got)
	}

	rr.Background = color.RGBA{B: 255, A: 255}
	rr.Shade = true
	err = rr.Render(scene, img, cam, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("corner pixel: got %v, want blue background", got)
	}
	// Center ray is normal to the red sphere's surface, fully lit.
	if got := img.RGBAAt(w/2, h/2); got.R < 250 || got.G != 0 {
		t.Errorf("shaded center pixel: got %v", got)
	}
	_, err = glrender.NewRaymarchRenderer(gleval.RaymarchConfig{})
	if err == nil {
		t.Error("expected invalid config error")
	}
}

func TestSliceRenderer(t *testing.T) {
	scene := demoScene()
	sr, err := glrender.NewSliceRenderer(128, nil)
	if err != nil {
		t.Fatal(err)
	}
	const w, h = 40, 20
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	window := ms3.Box{Min: ms3.Vec{X: -2, Y: -1}, Max: ms3.Vec{X: 2, Y: 1}}
	err = sr.Render(scene, img, window, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Pixel (10,10) maps to x=-0.95 inside the red sphere.
	if got := img.RGBAAt(10, 10); got != (color.RGBA{A: 255}) {
		t.Errorf("interior pixel: got %v, want black", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("exterior pixel: got %v, want white", got)
	}
	_, err = glrender.NewSliceRenderer(8, nil)
	if err == nil {
		t.Error("expected error for small buffer")
	}
	small, _ := glrender.NewSliceRenderer(65, nil)
	err = small.Render(scene, image.NewRGBA(image.Rect(0, 0, 100, 1)), window, nil)
	if err == nil {
		t.Error("expected error for image wider than buffer")
	}
}

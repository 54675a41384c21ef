// Package gsdfaux provides helpers to get a csg scene onto disk quickly:
// raymarched and cross-section PNG renders and the binary buffers consumed
// by parallel evaluators.
package gsdfaux

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/soypat/csg"
	"github.com/soypat/csg/glbuild"
	"github.com/soypat/csg/gleval"
	"github.com/soypat/csg/glrender"
	"github.com/soypat/geometry/ms3"
	xdraw "golang.org/x/image/draw"
)

// RenderConfig configures [Render].
type RenderConfig struct {
	// Width and Height are the output image dimensions in pixels.
	Width, Height int
	// Seconds is the scene time. Positions the demo orbit camera when Camera is nil.
	Seconds float32
	// Camera overrides the orbit camera.
	Camera *glrender.Camera
	// Supersample is the amount of samples per pixel along each axis.
	// Values below 2 disable supersampling.
	Supersample int
	// Raymarch is the termination policy. The zero value uses [gleval.DefaultRaymarchConfig].
	Raymarch gleval.RaymarchConfig
	// Shade enables Lambertian shading.
	Shade bool
	// Background is the color of rays that miss the scene. Black if nil.
	Background color.Color
	// Logger receives render progress. If nil [csg.Logger] is used.
	Logger *slog.Logger
}

func (cfg RenderConfig) raymarchConfig() gleval.RaymarchConfig {
	if cfg.Raymarch == (gleval.RaymarchConfig{}) {
		return gleval.DefaultRaymarchConfig()
	}
	return cfg.Raymarch
}

func (cfg RenderConfig) camera() glrender.Camera {
	if cfg.Camera != nil {
		return *cfg.Camera
	}
	return glrender.OrbitCamera(cfg.Seconds)
}

func (cfg RenderConfig) logger() *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return csg.Logger()
}

// RenderImage raymarches s into a new image of the configured dimensions.
// When supersampling the scene is rendered at a larger size and downscaled.
func RenderImage(s gleval.SDF3, cfg RenderConfig) (*image.RGBA, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("RenderImage requires positive image dimensions")
	}
	log := cfg.logger()
	renderer, err := glrender.NewRaymarchRenderer(cfg.raymarchConfig())
	if err != nil {
		return nil, err
	}
	renderer.Shade = cfg.Shade
	renderer.Background = cfg.Background
	ss := max(cfg.Supersample, 1)
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width*ss, cfg.Height*ss))
	var vp gleval.VecPool
	watch := stopwatch()
	err = renderer.Render(s, img, cfg.camera(), &vp)
	if err != nil {
		return nil, err
	}
	log.Info("raymarched scene", slog.Int("width", img.Rect.Dx()), slog.Int("height", img.Rect.Dy()), slog.Duration("elapsed", watch()))
	if ss == 1 {
		return img, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	xdraw.CatmullRom.Scale(dst, dst.Rect, img, img.Rect, xdraw.Src, nil)
	return dst, nil
}

// Render raymarches s and writes the result to w as PNG.
func Render(w io.Writer, s gleval.SDF3, cfg RenderConfig) error {
	if w == nil {
		return errors.New("Render requires output writer")
	}
	img, err := RenderImage(s, cfg)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// RenderPNGFile raymarches s and saves the result to a PNG file with said filename.
func RenderPNGFile(filename string, s gleval.SDF3, cfg RenderConfig) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = Render(fp, s, cfg)
	if err != nil {
		return err
	}
	cfg.logger().Info("wrote render", slog.String("file", filename))
	return fp.Sync()
}

// RenderSlice renders the cross section of s at the Z height of window's center and
// writes it to w as PNG. The image width is sized automatically from picHeight to
// preserve the window's aspect ratio. If a nil color conversion function is passed then one is automatically chosen.
func RenderSlice(w io.Writer, s gleval.SDF3, window ms3.Box, picHeight int, colorConversion func(float32) color.Color) error {
	sz := window.Size()
	if !(sz.X > 0 && sz.Y > 0) || picHeight <= 0 {
		return errors.New("RenderSlice requires a window with positive extent and positive image height")
	}
	if colorConversion == nil {
		colorConversion = ColorConversionInigoQuilez(ms3.Norm(sz) / 3)
	}
	pixPerUnit := float64(picHeight) / float64(sz.Y)
	picWidth := max(1, int(pixPerUnit*float64(sz.X)))
	img := image.NewRGBA(image.Rect(0, 0, picWidth, picHeight))
	renderer, err := glrender.NewSliceRenderer(max(4096, picWidth), colorConversion)
	if err != nil {
		return err
	}
	err = renderer.Render(s, img, window, nil)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// NewUniforms returns the uniforms block a parallel evaluator needs to render
// the frame described by cfg.
func NewUniforms(cfg RenderConfig) (glbuild.Uniforms, error) {
	rm := cfg.raymarchConfig()
	err := rm.Validate()
	if err != nil {
		return glbuild.Uniforms{}, err
	}
	cam := cfg.camera()
	return glbuild.Uniforms{
		WindowWidth:  float32(cfg.Width),
		WindowHeight: float32(cfg.Height),
		Seconds:      cfg.Seconds,
		MinDist:      rm.MinDist,
		MaxDist:      rm.MaxDist,
		MaxIter:      uint32(rm.MaxIter),
		Camera: glbuild.Camera{
			Pos: cam.Pos,
			Dir: cam.Dir,
		},
	}, nil
}

// WriteWire writes the little-endian distance and material buffers of s.
// Either writer may be nil to skip its buffer.
func WriteWire(distW, matW io.Writer, s csg.SDF) error {
	if s.IsEmpty() {
		return errors.New("WriteWire of empty SDF")
	}
	dists, mats := s.ToWire()
	if distW != nil {
		_, err := distW.Write(glbuild.AppendDistances(nil, dists))
		if err != nil {
			return fmt.Errorf("writing distances: %w", err)
		}
	}
	if matW != nil {
		_, err := matW.Write(glbuild.AppendMaterials(nil, mats))
		if err != nil {
			return fmt.Errorf("writing materials: %w", err)
		}
	}
	csg.Logger().Debug("wrote wire buffers", slog.Int("distances", len(dists)), slog.Int("materials", len(mats)))
	return nil
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

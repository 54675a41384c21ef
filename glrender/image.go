package glrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/csg/gleval"
	"github.com/soypat/geometry/ms3"
)

type setImage = interface {
	image.Image
	Set(x, y int, c color.Color)
}

// RaymarchRenderer renders 3D SDFs to images by sphere tracing one ray per pixel.
// Surfaces are colored by [gleval.ColorSDF3] when implemented, else white.
type RaymarchRenderer struct {
	cfg gleval.RaymarchConfig
	// Background is the color of rays that escape the scene. Black if nil.
	Background color.Color
	// Unresolved is the color of rays that exhaust their iterations. Uses Background if nil.
	Unresolved color.Color
	// Shade enables Lambertian shading with a light at the camera.
	Shade bool
	// Ambient is the shaded brightness of surfaces facing away from the light.
	Ambient float32

	origins []ms3.Vec
	dirs    []ms3.Vec
	results []gleval.RaymarchResult
	hitPos  []ms3.Vec
	hitIdx  []int
	normals []ms3.Vec
	colors  []ms3.Vec
}

// NewRaymarchRenderer instances a [RaymarchRenderer] with the given termination policy.
func NewRaymarchRenderer(cfg gleval.RaymarchConfig) (*RaymarchRenderer, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	return &RaymarchRenderer{cfg: cfg, Ambient: 0.2}, nil
}

// Config returns the renderer's raymarching configuration.
func (rr *RaymarchRenderer) Config() gleval.RaymarchConfig { return rr.cfg }

// Render raymarches sdf from cam over every pixel of img, one image row per batch.
// It uses userData as an argument to all SDF evaluations. If userData is not
// a [gleval.VecPool] a pool is allocated for the duration of the call.
func (rr *RaymarchRenderer) Render(sdf gleval.SDF3, img setImage, cam Camera, userData any) error {
	if sdf == nil {
		return errors.New("nil SDF3")
	}
	imgBB := img.Bounds()
	width, height := imgBB.Dx(), imgBB.Dy()
	if width == 0 || height == 0 {
		return errors.New("empty image")
	}
	if _, err := gleval.GetVecPool(userData); err != nil {
		userData = new(gleval.VecPool)
	}
	rr.grow(width)
	for y := 0; y < height; y++ {
		err := rr.renderRow(sdf, cam, y, width, height, imgBB, img, userData)
		if err != nil {
			return fmt.Errorf("row %d: %w", y, err)
		}
	}
	return nil
}

func (rr *RaymarchRenderer) grow(n int) {
	if cap(rr.results) >= n {
		return
	}
	rr.origins = make([]ms3.Vec, 0, n)
	rr.dirs = make([]ms3.Vec, 0, n)
	rr.results = make([]gleval.RaymarchResult, n)
	rr.hitPos = make([]ms3.Vec, 0, n)
	rr.hitIdx = make([]int, 0, n)
	rr.normals = make([]ms3.Vec, n)
	rr.colors = make([]ms3.Vec, n)
}

func (rr *RaymarchRenderer) renderRow(sdf gleval.SDF3, cam Camera, y, width, height int, imgBB image.Rectangle, img setImage, userData any) error {
	origins, dirs, err := cam.AppendRays(rr.origins[:0], rr.dirs[:0], width, height, y)
	if err != nil {
		return err
	}
	results := rr.results[:width]
	err = gleval.RaymarchBatch(sdf, origins, dirs, results, rr.cfg, userData)
	if err != nil {
		return err
	}
	hitPos := rr.hitPos[:0]
	hitIdx := rr.hitIdx[:0]
	for x, res := range results {
		if res.Hit() {
			hitPos = append(hitPos, res.Point)
			hitIdx = append(hitIdx, x)
		}
	}
	colors := rr.colors[:len(hitPos)]
	normals := rr.normals[:len(hitPos)]
	if len(hitPos) > 0 {
		if csdf, ok := sdf.(gleval.ColorSDF3); ok {
			err = csdf.EvaluateColor(hitPos, colors, userData)
			if err != nil {
				return err
			}
		} else {
			for i := range colors {
				colors[i] = ms3.Vec{X: 1, Y: 1, Z: 1}
			}
		}
		if rr.Shade {
			err = gleval.NormalsCentralDiff(sdf, hitPos, normals, rr.cfg.MinDist, userData)
			if err != nil {
				return err
			}
			for i, n := range normals {
				n, err = gleval.Normalize(n)
				if err != nil {
					continue // Flat region, leave unshaded.
				}
				lambert := math32.Max(0, -ms3.Dot(n, dirs[hitIdx[i]]))
				colors[i] = ms3.Scale(rr.Ambient+(1-rr.Ambient)*lambert, colors[i])
			}
		}
	}

	background := rr.Background
	if background == nil {
		background = color.Black
	}
	unresolved := rr.Unresolved
	if unresolved == nil {
		unresolved = background
	}
	hit := 0
	for x, res := range results {
		var c color.Color
		switch res.Outcome {
		case gleval.RaymarchHit:
			c = vecToRGBA(colors[hit])
			hit++
		case gleval.RaymarchTookTooLong:
			c = unresolved
		default:
			c = background
		}
		img.Set(x+imgBB.Min.X, y+imgBB.Min.Y, c)
	}
	return nil
}

func vecToRGBA(c ms3.Vec) color.RGBA {
	return color.RGBA{R: unitToByte(c.X), G: unitToByte(c.Y), B: unitToByte(c.Z), A: 255}
}

func unitToByte(f float32) uint8 {
	if !(f > 0) {
		return 0
	} else if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}

// SliceRenderer renders the distance values of a planar cross section of a 3D SDF.
type SliceRenderer struct {
	conv func(f float32) color.Color
	pos  []ms3.Vec
	dist []float32
}

// NewSliceRenderer instances a new [SliceRenderer]. A nil float->color conversion
// function results in a simple black-white color scheme where black is the interior of the SDF (negative distance).
func NewSliceRenderer(evalBufferSize int, conversion func(float32) color.Color) (*SliceRenderer, error) {
	if evalBufferSize <= 64 {
		return nil, errors.New("too small evaluation buffer size")
	}
	if conversion == nil {
		conversion = func(f float32) color.Color {
			switch {
			case math32.IsNaN(f) || math32.IsInf(f, 0):
				return color.RGBA{R: 255, A: 255}
			case f > 0:
				return color.White
			default:
				return color.Black
			}
		}
	}
	sr := &SliceRenderer{
		conv: conversion,
		pos:  make([]ms3.Vec, evalBufferSize),
		dist: make([]float32, evalBufferSize),
	}
	return sr, nil
}

// Render samples sdf over the XY extent of window at the Z height of window's center
// and stores the converted colors in img. Image row 0 corresponds to window.Max.Y.
// It uses userData as an argument to all [gleval.SDF3.Evaluate] calls.
func (sr *SliceRenderer) Render(sdf gleval.SDF3, img setImage, window ms3.Box, userData any) error {
	imgBB := img.Bounds()
	dxi := imgBB.Dx()
	dyi := imgBB.Dy()
	if len(sr.dist) < dxi {
		return fmt.Errorf("require evaluation buffer (%d) to be at least of length of image rows (%d)", len(sr.dist), dxi)
	}
	sz := window.Size()
	if !(sz.X > 0 && sz.Y > 0) {
		return errors.New("slice window must have positive X and Y extent")
	}
	z := window.Center().Z
	dx := sz.X / float32(dxi)
	dy := sz.Y / float32(dyi)
	xmin := window.Min.X + dx/2 // Offset to pixel centers.
	for j := 0; j < dyi; j++ {
		y := window.Max.Y - dy/2 - float32(j)*dy
		err := sr.renderRow(sdf, j, xmin, y, z, dx, imgBB, img, userData)
		if err != nil {
			return err
		}
	}
	return nil
}

func (sr *SliceRenderer) renderRow(sdf gleval.SDF3, row int, xmin, y, z, dx float32, imgBB image.Rectangle, img setImage, userData any) error {
	dxi := imgBB.Dx()
	for i := 0; i < dxi; i++ {
		sr.pos[i] = ms3.Vec{X: xmin + float32(i)*dx, Y: y, Z: z}
	}
	err := sdf.Evaluate(sr.pos[:dxi], sr.dist[:dxi], userData)
	if err != nil {
		return err
	}
	conv := sr.conv
	for i := 0; i < dxi; i++ {
		img.Set(i+imgBB.Min.X, row+imgBB.Min.Y, conv(sr.dist[i]))
	}
	return nil
}

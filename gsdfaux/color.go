package gsdfaux

import (
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
)

// HSV interpolation adapted from Esme Lamb's (@dedelala) color manipulation
// work presented at Gophercon AU 2024.
// https://github.com/dedelala/disco/tree/main/color

var red = color.RGBA{R: 255, A: 255}

// ColorConversionInigoQuilez creates a new color conversion using [Inigo Quilez]'s style
// for visualizing distance fields: orange outside, blue inside, with contour bands and a
// white surface line. A good value for characteristic distance is the viewed region's
// diagonal divided by 3. Returns red for NaN values.
//
// [Inigo Quilez]: https://iquilezles.org/articles/distfunctions2d/
func ColorConversionInigoQuilez(characteristicDistance float32) func(float32) color.Color {
	inv := 1. / characteristicDistance
	var (
		outside = ms3.Vec{X: 0.9, Y: 0.6, Z: 0.3}
		inside  = ms3.Vec{X: 0.65, Y: 0.85, Z: 1.0}
		white   = ms3.Vec{X: 1, Y: 1, Z: 1}
	)
	return func(d float32) color.Color {
		if math.IsNaN(d) {
			return red
		}
		d *= inv
		c := inside
		if d > 0 {
			c = outside
		}
		ad := math.Abs(d)
		c = ms3.Scale((1-math.Exp(-6*ad))*(0.8+0.2*math.Cos(150*d)), c)
		edge := 1 - ms1.SmoothStep(0, 0.01, ad)
		c = ms3.InterpElem(c, white, ms3.Vec{X: edge, Y: edge, Z: edge})
		return rgbVec(c).RGBA()
	}
}

// ColorConversionLinearGradient creates a color conversion function that creates a gradient centered
// along d=0 that extends gradientLength. Colors are interpolated in HSV space.
func ColorConversionLinearGradient(gradientLength float32, c0, c1 color.Color) func(d float32) color.Color {
	if c0 == color.Black && c1 == color.White {
		return grayscaleGradient(gradientLength)
	}
	h0, h1 := toHSV(c0), toHSV(c1)
	return func(d float32) color.Color {
		blend := d/gradientLength + 0.5
		if blend <= 0 {
			return c0
		} else if blend >= 1 {
			return c1
		}
		return h0.interp(h1, blend).rgb().RGBA()
	}
}

func grayscaleGradient(gradientLength float32) func(d float32) color.Color {
	if gradientLength == 0 {
		return func(d float32) color.Color {
			if d < 0 {
				return color.Black
			}
			return color.White
		}
	}
	return func(d float32) color.Color {
		blend := ms1.Clamp(d/gradientLength+0.5, 0, 1)
		return color.Gray{Y: uint8(blend * math.MaxUint8)}
	}
}

// rgbVec is a color with components in [0,1] stored in X, Y and Z.
type rgbVec ms3.Vec

func (c rgbVec) RGBA() color.RGBA {
	return color.RGBA{
		R: uint8(ms1.Clamp(c.X, 0, 1) * math.MaxUint8),
		G: uint8(ms1.Clamp(c.Y, 0, 1) * math.MaxUint8),
		B: uint8(ms1.Clamp(c.Z, 0, 1) * math.MaxUint8),
		A: 255,
	}
}

// hsv holds hue, saturation and value in [0,1].
type hsv struct{ h, s, v float32 }

func toHSV(c color.Color) hsv {
	r, g, b, _ := c.RGBA()
	const inv = 1. / 0xffff
	return rgbVec{X: float32(r) * inv, Y: float32(g) * inv, Z: float32(b) * inv}.hsv()
}

func (c rgbVec) hsv() (out hsv) {
	r, g, b := c.X, c.Y, c.Z
	xmax := max(r, g, b)
	chroma := xmax - min(r, g, b)
	out.v = xmax
	switch {
	case chroma == 0:
		out.h = 0
	case xmax == r:
		out.h = (g - b) / (chroma * 6)
	case xmax == g:
		out.h = 1.0/3 + (b-r)/(chroma*6)
	default:
		out.h = 2.0/3 + (r-g)/(chroma*6)
	}
	if out.h < 0 {
		out.h += 1
	}
	if xmax > 0 {
		out.s = chroma / xmax
	}
	return out
}

// interp interpolates towards other taking the shortest path around the hue circle.
func (c hsv) interp(other hsv, t float32) hsv {
	h0, h1 := c.h, other.h
	switch {
	case h1-h0 > 0.5:
		h0 += 1
	case h1-h0 < -0.5:
		h1 += 1
	}
	h := ms1.Interp(h0, h1, t)
	if h >= 1 {
		h -= 1
	}
	return hsv{
		h: h,
		s: ms1.Interp(c.s, other.s, t),
		v: ms1.Interp(c.v, other.v, t),
	}
}

func (c hsv) rgb() rgbVec {
	chroma := c.s * c.v
	x := chroma * (1 - math.Abs(math.Mod(c.h*6, 2)-1))
	m := c.v - chroma
	var r, g, b float32
	switch sector := int(c.h * 6); sector {
	case 0, 6:
		r, g, b = chroma, x, 0
	case 1:
		r, g, b = x, chroma, 0
	case 2:
		r, g, b = 0, chroma, x
	case 3:
		r, g, b = 0, x, chroma
	case 4:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}
	return rgbVec{X: r + m, Y: g + m, Z: b + m}
}

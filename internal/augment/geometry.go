package augment

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Rotate turns layer counter-clockwise by degrees about its centre. The
// result is enlarged to hold every corner, and the uncovered area is fully
// transparent.
func Rotate(layer *image.NRGBA, degrees float64) *image.NRGBA {
	if degrees == 0 {
		return layer
	}
	return imaging.Rotate(layer, degrees, color.Transparent)
}

// Shear applies x' = x + sx*y, y' = sy*x + y about the layer centre as one
// affine warp with bilinear sampling. The output is enlarged to hold all
// four transformed corners. A zero factor leaves its axis untouched; when
// both are zero the layer is returned as is.
func Shear(layer *image.NRGBA, sx, sy float64) *image.NRGBA {
	if sx == 0 && sy == 0 {
		return layer
	}

	b := layer.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	cx, cy := w/2, h/2

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [][2]float64{{-cx, -cy}, {cx, -cy}, {-cx, cy}, {cx, cy}} {
		x := c[0] + sx*c[1]
		y := sy*c[0] + c[1]
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	dw := int(math.Ceil(maxX - minX))
	dh := int(math.Ceil(maxY - minY))
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	ncx, ncy := float64(dw)/2, float64(dh)/2

	// Source point p maps to S*(p - min - c) + c', with S = [[1 sx] [sy 1]].
	ox := float64(b.Min.X) + cx
	oy := float64(b.Min.Y) + cy
	m := f64.Aff3{
		1, sx, ncx - ox - sx*oy,
		sy, 1, ncy - sy*ox - oy,
	}
	draw.BiLinear.Transform(dst, m, layer, b, draw.Src, nil)
	return dst
}

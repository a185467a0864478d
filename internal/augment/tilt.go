package augment

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/jmylchreest/ocrsynth/internal/security"
)

// Tilt imitates an out-of-plane rotation by narrowing rows (or columns)
// linearly from full width at one edge to scale x width at the other, each
// line recentred. It is not a projective warp.
//
// Column directions run the same row warp on the transposed layer; the
// result is then cropped to its content and resized back to the content
// size measured before tilting.
// The dimensions restored are those of the content box, not of the layer.
//
// Layers smaller than minPixels in either dimension are returned unchanged
// with applied == false.
func Tilt(layer *image.NRGBA, dir TiltDirection, scale float64, minPixels int) (out *image.NRGBA, applied bool) {
	if dir == TiltNone {
		return layer, false
	}
	b := layer.Bounds()
	if b.Dx() < minPixels || b.Dy() < minPixels {
		return layer, false
	}

	if !dir.columnWise() {
		switch dir {
		case TiltTopSmaller:
			return warpRows(layer, scale, true), true
		case TiltBottomSmaller:
			return warpRows(layer, scale, false), true
		default:
			return layer, false
		}
	}

	before, ok := ContentBounds(layer)
	if !ok {
		return layer, false
	}

	// Transposition maps the left column to the top row.
	t := imaging.Transpose(layer)
	t = warpRows(t, scale, dir == TiltLeftSmaller)
	warped := imaging.Transpose(t)

	after, ok := ContentBounds(warped)
	if !ok {
		return layer, false
	}
	cropped := imaging.Crop(warped, after)
	return imaging.Resize(cropped, before.Dx(), before.Dy(), imaging.Linear), true
}

// warpRows resamples each row to its scaled width, centred in the original
// width. With firstSmaller the first row is scaled by scale and the last by
// one; otherwise the reverse. Sampling interpolates linearly in
// premultiplied space so transparent neighbours do not bleed colour.
func warpRows(src *image.NRGBA, scale float64, firstSmaller bool) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		t := 0.0
		if h > 1 {
			t = float64(y) / float64(h-1)
		}
		if !firstSmaller {
			t = 1 - t
		}
		f := scale + (1-scale)*t
		off := float64(w) * (1 - f) / 2

		srcRow := src.Pix[y*src.Stride : y*src.Stride+w*4]
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]

		for x := 0; x < w; x++ {
			u := (float64(x)+0.5-off)/f - 0.5
			if u < -0.5 || u > float64(w)-0.5 {
				continue
			}
			x0 := int(math.Floor(u))
			frac := u - float64(x0)
			x1 := x0 + 1
			x0 = min(max(x0, 0), w-1)
			x1 = min(max(x1, 0), w-1)

			p0 := srcRow[x0*4 : x0*4+4]
			p1 := srcRow[x1*4 : x1*4+4]
			a0, a1 := float64(p0[3]), float64(p1[3])
			a := a0*(1-frac) + a1*frac
			if a <= 0 {
				continue
			}

			d := dstRow[x*4 : x*4+4]
			for c := 0; c < 3; c++ {
				premul := float64(p0[c])*a0*(1-frac) + float64(p1[c])*a1*frac
				d[c] = security.SafeUint8(premul / a)
			}
			d[3] = security.SafeUint8(a)
		}
	}
	return dst
}

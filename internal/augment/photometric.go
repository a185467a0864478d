package augment

import (
	"image"

	"github.com/disintegration/imaging"
)

// Blur returns a Gaussian-blurred copy of img. A non-positive radius
// returns img itself.
func Blur(img *image.NRGBA, radius float64) *image.NRGBA {
	if radius <= 0 {
		return img
	}
	return imaging.Blur(img, radius)
}

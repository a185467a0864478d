package augment

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ErrEmptyContent is returned when a transformed layer has no visible pixel.
var ErrEmptyContent = errors.New("layer has no visible content")

// ContentBounds returns the smallest rectangle enclosing every pixel with
// non-zero alpha. ok is false for a fully transparent layer.
func ContentBounds(layer *image.NRGBA) (r image.Rectangle, ok bool) {
	b := layer.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := layer.Pix[(y-b.Min.Y)*layer.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] == 0 {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}

	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// FitSize returns the size of a w x h box after uniform downscaling so it
// fits within maxW x maxH. Boxes that already fit are returned unchanged;
// nothing is ever enlarged.
func FitSize(w, h int, maxW, maxH float64) (int, int) {
	if float64(w) <= maxW && float64(h) <= maxH {
		return w, h
	}
	ratio := math.Min(maxW/float64(w), maxH/float64(h))
	nw := max(int(math.Floor(float64(w)*ratio)), 1)
	nh := max(int(math.Floor(float64(h)*ratio)), 1)
	return nw, nh
}

// Composite crops layer to its content, downscales it to at most
// fitFraction of each background dimension, and overlays it centred on a
// copy of background. The result always has the background's bounds.
func Composite(background, layer *image.NRGBA, fitFraction float64) (*image.NRGBA, error) {
	content, ok := ContentBounds(layer)
	if !ok {
		return nil, ErrEmptyContent
	}

	bb := background.Bounds()
	if bb.Empty() {
		return nil, fmt.Errorf("background is empty")
	}

	glyphs := imaging.Crop(layer, content)
	w, h := FitSize(content.Dx(), content.Dy(), fitFraction*float64(bb.Dx()), fitFraction*float64(bb.Dy()))
	if w != content.Dx() || h != content.Dy() {
		glyphs = imaging.Resize(glyphs, w, h, imaging.Lanczos)
	}

	pos := image.Pt(bb.Min.X+(bb.Dx()-w)/2, bb.Min.Y+(bb.Dy()-h)/2)
	return imaging.Overlay(background, glyphs, pos, 1.0), nil
}

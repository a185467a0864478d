// Background generator for manual ocrsynth runs.
//
//	go run testdata/generate_test_image.go
//	ocrsynth generate --corpus lines.txt --font goregular --background testdata/background.png
package main

import (
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
)

func main() {
	// Off-white paper with a faint vertical gradient and grain
	width := 400
	height := 400
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	r := rand.New(rand.NewSource(1)) // #nosec G404 - fixed texture, not security sensitive

	for y := 0; y < height; y++ {
		shade := 236 - y*16/height
		for x := 0; x < width; x++ {
			grain := r.Intn(9) - 4
			v := uint8(shade + grain)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: uint8(int(v) - 6), A: 255})
		}
	}

	// A few ruled lines, as on notebook paper
	rule := color.NRGBA{R: 170, G: 190, B: 220, A: 255}
	for y := 60; y < height; y += 60 {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, rule)
		}
	}

	file, err := os.Create("testdata/background.png")
	if err != nil {
		panic(err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		panic(err)
	}

	println("Background created: testdata/background.png")
}

// Package augment renders text onto a background frame through a chain of
// randomized geometric and photometric perturbations.
//
// Every random choice for one sample is drawn up front by SampleParams, so
// the rest of the pipeline is a pure function of (text, Params).
package augment

import (
	"fmt"
	"math"

	"github.com/jmylchreest/ocrsynth/internal/colour"
	"github.com/jmylchreest/ocrsynth/internal/config"
)

// Rand is the random source consumed by the pipeline. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// TiltDirection selects which edge of the layer is foreshortened.
type TiltDirection int

const (
	TiltNone TiltDirection = iota
	TiltTopSmaller
	TiltBottomSmaller
	TiltLeftSmaller
	TiltRightSmaller
)

var tiltNames = map[TiltDirection]string{
	TiltNone:          "none",
	TiltTopSmaller:    "top-smaller",
	TiltBottomSmaller: "bottom-smaller",
	TiltLeftSmaller:   "left-smaller",
	TiltRightSmaller:  "right-smaller",
}

func (d TiltDirection) String() string {
	if name, ok := tiltNames[d]; ok {
		return name
	}
	return fmt.Sprintf("tilt(%d)", int(d))
}

// MarshalText implements encoding.TextMarshaler.
func (d TiltDirection) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *TiltDirection) UnmarshalText(text []byte) error {
	for dir, name := range tiltNames {
		if name == string(text) {
			*d = dir
			return nil
		}
	}
	return fmt.Errorf("unknown tilt direction %q", text)
}

// columnWise reports whether the direction shrinks columns instead of rows.
func (d TiltDirection) columnWise() bool {
	return d == TiltLeftSmaller || d == TiltRightSmaller
}

// Params are the per-sample transform parameters. They are immutable once
// sampled and fully determine the rendered frame for a given text.
type Params struct {
	FontSize       int           `json:"font_size"`
	Fill           colour.RGB    `json:"fill"`
	Rotation       float64       `json:"rotation"`
	ShearX         float64       `json:"shear_x"`
	ShearY         float64       `json:"shear_y"`
	Tilt           TiltDirection `json:"tilt"`
	TiltScale      float64       `json:"tilt_scale,omitempty"`
	BackgroundBlur float64       `json:"background_blur"`
	TextBlur       float64       `json:"text_blur"`
}

// SampleParams draws one Params from r. The draw order is fixed:
//
//  1. font size
//  2. fill red, green, blue
//  3. rotation
//  4. shear x, shear y
//  5. tilt gate, then direction and scale only when the gate passes
//  6. background blur radius
//  7. text blur radius
//
// Shear factors smaller in magnitude than ShearEpsilon are recorded as zero.
func SampleParams(r Rand, a config.Augment) Params {
	var p Params

	p.FontSize = a.FontSize.Min + r.Intn(a.FontSize.Max-a.FontSize.Min+1)
	p.Fill = colour.RGB{
		R: uint8(r.Intn(256)), // #nosec G115 -- Intn(256) fits in a byte
		G: uint8(r.Intn(256)), // #nosec G115
		B: uint8(r.Intn(256)), // #nosec G115
	}

	p.Rotation = uniform(r, a.Rotation)

	p.ShearX = uniform(r, a.ShearX)
	p.ShearY = uniform(r, a.ShearY)
	if math.Abs(p.ShearX) < a.ShearEpsilon {
		p.ShearX = 0
	}
	if math.Abs(p.ShearY) < a.ShearEpsilon {
		p.ShearY = 0
	}

	if r.Float64() < a.TiltProbability {
		p.Tilt = TiltDirection(1 + r.Intn(4))
		p.TiltScale = uniform(r, a.TiltScale)
	}

	p.BackgroundBlur = uniform(r, a.BackgroundBlur)
	p.TextBlur = uniform(r, a.TextBlur)

	return p
}

func uniform(r Rand, rg config.Range) float64 {
	return rg.Min + r.Float64()*(rg.Max-rg.Min)
}

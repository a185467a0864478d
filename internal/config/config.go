// Package config defines the tunables of the augmentation pipeline and the
// dataset splitter, and loads them from defaults, named profiles, TOML files
// and command-line flags.
package config

import (
	"fmt"
	"slices"
	"sort"
)

// Range is a closed interval [Min, Max] sampled uniformly.
type Range struct {
	Min float64 `toml:"min" json:"min"`
	Max float64 `toml:"max" json:"max"`
}

// IntRange is a closed integer interval [Min, Max] sampled uniformly.
type IntRange struct {
	Min int `toml:"min" json:"min"`
	Max int `toml:"max" json:"max"`
}

// Frame describes the output raster.
type Frame struct {
	Width  int `toml:"width" json:"width"`
	Height int `toml:"height" json:"height"`

	// CanvasMargin scales the frame diagonal to size the working canvas so
	// rotation and shear never clip glyphs before the final crop.
	CanvasMargin float64 `toml:"canvas_margin" json:"canvas_margin"`
}

// Augment enumerates every tunable of the augmentation pipeline.
type Augment struct {
	FontSize        IntRange `toml:"font_size" json:"font_size"`
	FontSizeStep    int      `toml:"font_size_step" json:"font_size_step"`
	FontSizeFloor   int      `toml:"font_size_floor" json:"font_size_floor"`
	TextFitFraction float64  `toml:"text_fit_fraction" json:"text_fit_fraction"`
	MaxTextExtent   int      `toml:"max_text_extent" json:"max_text_extent"`

	Rotation     Range   `toml:"rotation" json:"rotation"`
	ShearX       Range   `toml:"shear_x" json:"shear_x"`
	ShearY       Range   `toml:"shear_y" json:"shear_y"`
	ShearEpsilon float64 `toml:"shear_epsilon" json:"shear_epsilon"`

	TiltProbability float64 `toml:"tilt_probability" json:"tilt_probability"`
	TiltScale       Range   `toml:"tilt_scale" json:"tilt_scale"`
	MinTiltPixels   int     `toml:"min_tilt_pixels" json:"min_tilt_pixels"`

	BackgroundBlur Range `toml:"background_blur" json:"background_blur"`
	TextBlur       Range `toml:"text_blur" json:"text_blur"`

	// FitFraction is the share of each frame dimension the composited text
	// may occupy before it is downscaled.
	FitFraction float64 `toml:"fit_fraction" json:"fit_fraction"`
}

// Split holds the train and validation ratios; test receives the remainder.
type Split struct {
	Train float64 `toml:"train" json:"train"`
	Val   float64 `toml:"val" json:"val"`
}

// Config is the complete generation configuration.
type Config struct {
	Frame   Frame   `toml:"frame" json:"frame"`
	Augment Augment `toml:"augment" json:"augment"`
	Split   Split   `toml:"split" json:"split"`
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		Frame: Frame{
			Width:        400,
			Height:       400,
			CanvasMargin: 1.3,
		},
		Augment: Augment{
			FontSize:        IntRange{Min: 48, Max: 140},
			FontSizeStep:    5,
			FontSizeFloor:   10,
			TextFitFraction: 0.95,
			MaxTextExtent:   512,
			Rotation:        Range{Min: -15, Max: 15},
			ShearX:          Range{Min: -0.2, Max: 0.2},
			ShearY:          Range{Min: -0.1, Max: 0.1},
			ShearEpsilon:    0.01,
			TiltProbability: 0.5,
			TiltScale:       Range{Min: 0.6, Max: 0.9},
			MinTiltPixels:   8,
			BackgroundBlur:  Range{Min: 0.5, Max: 2.0},
			TextBlur:        Range{Min: 0, Max: 1.5},
			FitFraction:     0.90,
		},
		Split: Split{
			Train: 0.70,
			Val:   0.20,
		},
	}
}

// profiles are the pipeline variants seen in practice. They differ in how
// much of the frame the text may fill and whether tilt simulation runs.
var profiles = map[string]func(*Config){
	"standard": func(c *Config) {
		c.Augment.FitFraction = 0.90
		c.Augment.TiltProbability = 0.5
	},
	"compact": func(c *Config) {
		c.Augment.FitFraction = 0.75
		c.Augment.TiltProbability = 0
	},
	"balanced": func(c *Config) {
		c.Augment.FitFraction = 0.85
		c.Augment.TiltProbability = 0.5
	},
	"wide": func(c *Config) {
		c.Augment.FitFraction = 0.95
		c.Augment.TiltProbability = 0
	},
}

// Profiles returns the known profile names in sorted order.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyProfile overlays the named profile on c.
func (c *Config) ApplyProfile(name string) error {
	apply, ok := profiles[name]
	if !ok {
		return fmt.Errorf("unknown profile: %s (valid: %v)", name, Profiles())
	}
	apply(c)
	return nil
}

// Validate checks every field for internal consistency.
func (c Config) Validate() error {
	if err := c.Frame.Validate(); err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	if err := c.Augment.Validate(); err != nil {
		return fmt.Errorf("augment: %w", err)
	}
	if err := c.Split.Validate(); err != nil {
		return fmt.Errorf("split: %w", err)
	}
	return nil
}

// Validate validates the frame configuration.
func (f Frame) Validate() error {
	if f.Width < 1 || f.Height < 1 {
		return fmt.Errorf("frame size must be positive, got %dx%d", f.Width, f.Height)
	}
	if f.CanvasMargin < 1 {
		return fmt.Errorf("canvas_margin must be at least 1, got %v", f.CanvasMargin)
	}
	return nil
}

// Validate validates the augmentation configuration.
func (a Augment) Validate() error {
	if a.FontSize.Min < 1 || a.FontSize.Min > a.FontSize.Max {
		return fmt.Errorf("font_size must satisfy 1 <= min <= max, got %d..%d", a.FontSize.Min, a.FontSize.Max)
	}
	if a.FontSizeStep < 1 {
		return fmt.Errorf("font_size_step must be positive, got %d", a.FontSizeStep)
	}
	if a.FontSizeFloor < 1 || a.FontSizeFloor > a.FontSize.Min {
		return fmt.Errorf("font_size_floor must be in 1..%d, got %d", a.FontSize.Min, a.FontSizeFloor)
	}
	if a.MaxTextExtent < 1 {
		return fmt.Errorf("max_text_extent must be positive, got %d", a.MaxTextExtent)
	}

	fractions := []struct {
		name string
		v    float64
	}{
		{"text_fit_fraction", a.TextFitFraction},
		{"fit_fraction", a.FitFraction},
	}
	for _, f := range fractions {
		if f.v <= 0 || f.v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", f.name, f.v)
		}
	}

	ranges := []struct {
		name   string
		r      Range
		lo, hi float64
	}{
		{"rotation", a.Rotation, -180, 180},
		{"shear_x", a.ShearX, -0.99, 0.99},
		{"shear_y", a.ShearY, -0.99, 0.99},
		{"tilt_scale", a.TiltScale, 0.05, 1},
		{"background_blur", a.BackgroundBlur, 0, 50},
		{"text_blur", a.TextBlur, 0, 50},
	}
	for _, r := range ranges {
		if r.r.Min > r.r.Max {
			return fmt.Errorf("%s min %v exceeds max %v", r.name, r.r.Min, r.r.Max)
		}
		if r.r.Min < r.lo || r.r.Max > r.hi {
			return fmt.Errorf("%s must lie within [%v, %v], got %v..%v", r.name, r.lo, r.hi, r.r.Min, r.r.Max)
		}
	}

	// A shear matrix [[1 x] [y 1]] is singular when x*y == 1.
	corners := []float64{a.ShearX.Min * a.ShearY.Min, a.ShearX.Min * a.ShearY.Max, a.ShearX.Max * a.ShearY.Min, a.ShearX.Max * a.ShearY.Max}
	if slices.Max(corners) >= 0.9 {
		return fmt.Errorf("shear_x and shear_y ranges are too large to combine")
	}

	if a.ShearEpsilon < 0 {
		return fmt.Errorf("shear_epsilon must not be negative, got %v", a.ShearEpsilon)
	}
	if a.TiltProbability < 0 || a.TiltProbability > 1 {
		return fmt.Errorf("tilt_probability must be in [0, 1], got %v", a.TiltProbability)
	}
	if a.MinTiltPixels < 2 {
		return fmt.Errorf("min_tilt_pixels must be at least 2, got %d", a.MinTiltPixels)
	}
	return nil
}

// Validate validates the split ratios.
func (s Split) Validate() error {
	if s.Train < 0 || s.Val < 0 {
		return fmt.Errorf("ratios must not be negative, got train=%v val=%v", s.Train, s.Val)
	}
	if s.Train+s.Val > 1 {
		return fmt.Errorf("train + val must not exceed 1, got %v", s.Train+s.Val)
	}
	return nil
}

// Test returns the remainder ratio assigned to the test split.
func (s Split) Test() float64 {
	return max(0, 1-s.Train-s.Val)
}

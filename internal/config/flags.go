package config

import (
	"github.com/spf13/pflag"
)

// Flag names for the overrides registered by BindFlags.
const (
	FlagFrameWidth      = "frame-width"
	FlagFrameHeight     = "frame-height"
	FlagFitFraction     = "fit-fraction"
	FlagTiltProbability = "tilt-probability"
	FlagRotation        = "max-rotation"
	FlagTrainRatio      = "train-ratio"
	FlagValRatio        = "val-ratio"
)

// Overrides holds the flag-bound values that take precedence over profiles
// and config files when explicitly set.
type Overrides struct {
	fs *pflag.FlagSet

	frameWidth      int
	frameHeight     int
	fitFraction     float64
	tiltProbability float64
	maxRotation     float64
	trainRatio      float64
	valRatio        float64
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *pflag.FlagSet) *Overrides {
	def := Default()
	o := &Overrides{fs: fs}
	fs.IntVar(&o.frameWidth, FlagFrameWidth, def.Frame.Width, "output frame width in pixels")
	fs.IntVar(&o.frameHeight, FlagFrameHeight, def.Frame.Height, "output frame height in pixels")
	fs.Float64Var(&o.fitFraction, FlagFitFraction, def.Augment.FitFraction, "share of the frame the text may fill (0-1]")
	fs.Float64Var(&o.tiltProbability, FlagTiltProbability, def.Augment.TiltProbability, "probability of simulated tilt per sample (0 disables)")
	fs.Float64Var(&o.maxRotation, FlagRotation, def.Augment.Rotation.Max, "maximum absolute rotation in degrees")
	fs.Float64Var(&o.trainRatio, FlagTrainRatio, def.Split.Train, "share of samples assigned to train")
	fs.Float64Var(&o.valRatio, FlagValRatio, def.Split.Val, "share of samples assigned to val")
	return o
}

// Apply copies every explicitly set flag into c.
func (o *Overrides) Apply(c *Config) {
	if o == nil || o.fs == nil {
		return
	}
	if o.fs.Changed(FlagFrameWidth) {
		c.Frame.Width = o.frameWidth
	}
	if o.fs.Changed(FlagFrameHeight) {
		c.Frame.Height = o.frameHeight
	}
	if o.fs.Changed(FlagFitFraction) {
		c.Augment.FitFraction = o.fitFraction
	}
	if o.fs.Changed(FlagTiltProbability) {
		c.Augment.TiltProbability = o.tiltProbability
	}
	if o.fs.Changed(FlagRotation) {
		c.Augment.Rotation = Range{Min: -o.maxRotation, Max: o.maxRotation}
	}
	if o.fs.Changed(FlagTrainRatio) {
		c.Split.Train = o.trainRatio
	}
	if o.fs.Changed(FlagValRatio) {
		c.Split.Val = o.valRatio
	}
}

package augment

import (
	"fmt"
	"image"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/ocrsynth/internal/colour"
	"github.com/jmylchreest/ocrsynth/internal/config"
)

// Result is one finished frame together with the choices that produced it.
type Result struct {
	Image  *image.NRGBA
	Params Params

	// FontSize is the size used after fitting, at most Params.FontSize.
	FontSize int

	// Tilted reports whether the tilt step actually ran.
	Tilted bool

	// BackgroundMean is the average colour of the blurred background.
	BackgroundMean colour.RGB
}

// Pipeline turns text into finished frames. It holds no per-sample state
// and is reused across samples, but is not safe for concurrent use.
type Pipeline struct {
	renderer   *Renderer
	cfg        config.Config
	background *image.NRGBA
	logger     hclog.Logger
}

// New creates a pipeline. background must already match the frame size.
func New(f *Font, background *image.NRGBA, cfg config.Config, logger hclog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if background == nil {
		return nil, fmt.Errorf("background cannot be nil")
	}
	if got := background.Bounds().Size(); got != image.Pt(cfg.Frame.Width, cfg.Frame.Height) {
		return nil, fmt.Errorf("background is %dx%d, frame is %dx%d", got.X, got.Y, cfg.Frame.Width, cfg.Frame.Height)
	}

	renderer, err := NewRenderer(f, cfg.Frame, cfg.Augment)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Pipeline{
		renderer:   renderer,
		cfg:        cfg,
		background: background,
		logger:     logger.Named("augment"),
	}, nil
}

// Generate samples fresh parameters from r and renders text with them.
func (p *Pipeline) Generate(text string, r Rand) (*Result, error) {
	return p.Render(text, SampleParams(r, p.cfg.Augment))
}

// Render produces the frame for text under params. It is deterministic.
// A layer left fully transparent by the transforms yields ErrEmptyContent.
func (p *Pipeline) Render(text string, params Params) (*Result, error) {
	canvas, err := p.renderer.Render(text, params.FontSize, params.Fill)
	if err != nil {
		return nil, fmt.Errorf("failed to render text: %w", err)
	}
	if canvas.FontSize != params.FontSize {
		p.logger.Trace("font size reduced to fit", "from", params.FontSize, "to", canvas.FontSize)
	}

	layer := Rotate(canvas.Image, params.Rotation)
	layer = Shear(layer, params.ShearX, params.ShearY)

	layer, tilted := Tilt(layer, params.Tilt, params.TiltScale, p.cfg.Augment.MinTiltPixels)
	if params.Tilt != TiltNone && !tilted {
		p.logger.Debug("tilt skipped", "direction", params.Tilt, "size", layer.Bounds().Size())
	}

	layer = Blur(layer, params.TextBlur)
	bg := Blur(p.background, params.BackgroundBlur)

	frame, err := Composite(bg, layer, p.cfg.Augment.FitFraction)
	if err != nil {
		return nil, err
	}

	return &Result{
		Image:          frame,
		Params:         params,
		FontSize:       canvas.FontSize,
		Tilted:         tilted,
		BackgroundMean: colour.Mean(bg),
	}, nil
}

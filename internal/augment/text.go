package augment

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/jmylchreest/ocrsynth/internal/colour"
	"github.com/jmylchreest/ocrsynth/internal/config"
)

// ErrTextTooLarge is returned when text still overflows the working canvas
// at the minimum font size.
var ErrTextTooLarge = errors.New("text does not fit the canvas at the minimum font size")

// Canvas is an oversized transparent layer holding only rendered text.
type Canvas struct {
	Image *image.NRGBA

	// FontSize is the size actually used after fitting.
	FontSize int

	// Ink is the rendered ink box in canvas coordinates; empty when the
	// text produced no visible glyphs.
	Ink image.Rectangle
}

// Renderer draws text onto square canvases large enough to survive
// rotation and shear without clipping. Text is shaped with HarfBuzz, so
// ligatures, kerning and stacked combining marks are placed by the font's
// own GSUB and GPOS rules. A Renderer is not safe for concurrent use.
type Renderer struct {
	font  *Font
	face  *gotext.Face
	frame config.Frame
	aug   config.Augment
	side  int

	shaper shaping.HarfbuzzShaper
	buf    sfnt.Buffer
	rast   vector.Rasterizer
}

// NewRenderer creates a Renderer for the given font and configuration.
func NewRenderer(f *Font, frame config.Frame, aug config.Augment) (*Renderer, error) {
	if f == nil {
		return nil, fmt.Errorf("font cannot be nil")
	}
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{
		font:  f,
		face:  gotext.NewFace(f.shaping),
		frame: frame,
		aug:   aug,
		side:  CanvasSide(frame),
	}, nil
}

// CanvasSide returns the side of the square working canvas: the frame
// diagonal times the canvas margin, rounded up.
func CanvasSide(frame config.Frame) int {
	diag := math.Hypot(float64(frame.Width), float64(frame.Height))
	return int(math.Ceil(diag * frame.CanvasMargin))
}

// glyph is a shaped glyph whose origin is relative to the start of the
// baseline, y growing downwards.
type glyph struct {
	id     sfnt.GlyphIndex
	origin fixed.Point26_6
}

// line is text shaped at one size.
type line struct {
	size   int
	ppem   fixed.Int26_6
	glyphs []glyph

	// ink is the union of the glyph bounds, in the glyph origin space.
	ink fixed.Rectangle26_6
}

func (l line) extent() (w, h int) {
	if l.ink.Empty() {
		return 0, 0
	}
	return (l.ink.Max.X - l.ink.Min.X).Ceil(), (l.ink.Max.Y - l.ink.Min.Y).Ceil()
}

// Render draws text centred on a fresh canvas in the fill colour, starting
// at size and shrinking by FontSizeStep until the ink box fits the frame or
// FontSizeFloor is reached. Text that overflows the canvas even at the floor
// yields ErrTextTooLarge rather than a clipped rendering.
func (r *Renderer) Render(text string, size int, fill colour.RGB) (*Canvas, error) {
	l, err := r.fit(text, size)
	if err != nil {
		return nil, err
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, r.side, r.side))
	c := &Canvas{Image: canvas, FontSize: l.size}
	if l.ink.Empty() {
		return c, nil
	}

	// Place the centre of the ink box on the centre of the canvas.
	half := fixed.I(r.side) / 2
	dot := fixed.Point26_6{
		X: half - (l.ink.Min.X+l.ink.Max.X)/2,
		Y: half - (l.ink.Min.Y+l.ink.Max.Y)/2,
	}
	if err := r.draw(canvas, l, dot, fill); err != nil {
		return nil, err
	}

	ink := l.ink.Add(dot)
	c.Ink = image.Rect(ink.Min.X.Floor(), ink.Min.Y.Floor(), ink.Max.X.Ceil(), ink.Max.Y.Ceil())
	return c, nil
}

// fit shapes text at decreasing sizes until it fits.
func (r *Renderer) fit(text string, size int) (line, error) {
	limit := r.aug.TextFitFraction * float64(max(r.frame.Width, r.frame.Height))
	floor := max(r.aug.FontSizeFloor, 1)
	step := max(r.aug.FontSizeStep, 1)
	size = max(size, floor)

	for {
		l, err := r.shape(text, size)
		if err != nil {
			return line{}, err
		}

		w, h := l.extent()
		fits := float64(w) <= limit && float64(h) <= limit &&
			w <= r.aug.MaxTextExtent && h <= r.aug.MaxTextExtent
		if fits {
			return l, nil
		}
		if size <= floor {
			// One pixel of slack on each side for antialiasing.
			if w > r.side-2 || h > r.side-2 {
				return line{}, fmt.Errorf("%w: ink is %dx%d at size %d, canvas is %d", ErrTextTooLarge, w, h, size, r.side)
			}
			return l, nil
		}
		size = max(size-step, floor)
	}
}

// shape runs text through the shaper at size and measures every glyph.
func (r *Renderer) shape(text string, size int) (line, error) {
	runes := []rune(text)
	l := line{size: size, ppem: fixed.I(size)}
	if len(runes) == 0 {
		return l, nil
	}

	out := r.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      r.face,
		Size:      l.ppem,
		Script:    detectScript(runes),
	})

	numGlyphs := r.font.outlines.NumGlyphs()
	var pen fixed.Int26_6
	for _, g := range out.Glyphs {
		// Shaper offsets grow upwards.
		origin := fixed.Point26_6{X: pen + g.XOffset, Y: -g.YOffset}
		pen += g.Advance

		if int(g.GlyphID) >= numGlyphs {
			return line{}, fmt.Errorf("shaper returned glyph %d, font has %d", g.GlyphID, numGlyphs)
		}
		id := sfnt.GlyphIndex(g.GlyphID) // #nosec G115 - bounded by NumGlyphs above
		bounds, _, err := r.font.outlines.GlyphBounds(&r.buf, id, l.ppem, font.HintingNone)
		if err != nil {
			return line{}, fmt.Errorf("failed to measure glyph %d: %w", id, err)
		}
		if bounds.Empty() {
			continue
		}
		l.glyphs = append(l.glyphs, glyph{id: id, origin: origin})
		l.ink = l.ink.Union(bounds.Add(origin))
	}
	return l, nil
}

// draw rasterizes the glyph outlines of l at dot and composites them onto
// dst in the fill colour.
func (r *Renderer) draw(dst *image.NRGBA, l line, dot fixed.Point26_6, fill colour.RGB) error {
	r.rast.Reset(r.side, r.side)
	for _, g := range l.glyphs {
		segments, err := r.font.outlines.LoadGlyph(&r.buf, g.id, l.ppem, nil)
		if err != nil {
			return fmt.Errorf("failed to load glyph %d: %w", g.id, err)
		}
		o := dot.Add(g.origin)
		x := func(v fixed.Int26_6) float32 { return float32(o.X+v) / 64 }
		y := func(v fixed.Int26_6) float32 { return float32(o.Y+v) / 64 }

		for i, seg := range segments {
			a := seg.Args
			switch seg.Op {
			case sfnt.SegmentOpMoveTo:
				if i > 0 {
					r.rast.ClosePath()
				}
				r.rast.MoveTo(x(a[0].X), y(a[0].Y))
			case sfnt.SegmentOpLineTo:
				r.rast.LineTo(x(a[0].X), y(a[0].Y))
			case sfnt.SegmentOpQuadTo:
				r.rast.QuadTo(x(a[0].X), y(a[0].Y), x(a[1].X), y(a[1].Y))
			case sfnt.SegmentOpCubeTo:
				r.rast.CubeTo(x(a[0].X), y(a[0].Y), x(a[1].X), y(a[1].Y), x(a[2].X), y(a[2].Y))
			}
		}
		if len(segments) > 0 {
			r.rast.ClosePath()
		}
	}

	mask := image.NewAlpha(dst.Bounds())
	r.rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(dst, dst.Bounds(), image.NewUniform(fill.NRGBA()), image.Point{}, mask, image.Point{}, draw.Over)
	return nil
}

// detectScript returns the script of the first rune that belongs to one,
// defaulting to Latin.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if s := language.LookupScript(r); s.Strong() {
			return s
		}
	}
	return language.Latin
}

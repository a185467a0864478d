package augment

import (
	"bytes"
	"fmt"
	"os"

	gotext "github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// builtinFonts are selectable by name in place of a font path.
var builtinFonts = map[string][]byte{
	"goregular": goregular.TTF,
	"gobold":    gobold.TTF,
	"gomono":    gomono.TTF,
}

// Font is a parsed font, held twice: the shaping tables drive glyph
// selection and placement, the outlines are rasterized.
type Font struct {
	outlines *sfnt.Font
	shaping  *gotext.Font
}

// LoadFont parses a TrueType or OpenType font from path, or returns one of
// the embedded Go fonts when path names it ("goregular", "gobold", "gomono").
func LoadFont(path string) (*Font, error) {
	if data, ok := builtinFonts[path]; ok {
		return ParseFont(data)
	}

	data, err := os.ReadFile(path) // #nosec G304 - User-specified font path, intended to be read
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("font file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	return ParseFont(data)
}

// ParseFont parses raw font bytes. Collections are not supported.
func ParseFont(data []byte) (*Font, error) {
	outlines, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse font tables: %w", err)
	}
	return &Font{outlines: outlines, shaping: face.Font}, nil
}

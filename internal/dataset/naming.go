package dataset

import (
	"fmt"
	"path"
	"strings"
	"unicode"
)

// maxNameRunes caps the text-derived part of an image file name.
const maxNameRunes = 40

// SanitizeName reduces text to a file-name-safe stem. Letters, combining
// marks and digits are kept; every other run of runes becomes a single
// underscore. Leading and trailing underscores are dropped and the result
// is capped at 40 runes. Text with nothing usable yields "".
func SanitizeName(text string) string {
	var b strings.Builder
	n := 0
	pendingSep := false

	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsMark(r) && !unicode.IsDigit(r) {
			pendingSep = n > 0
			continue
		}
		if pendingSep {
			if n+1 >= maxNameRunes {
				break
			}
			b.WriteByte('_')
			n++
			pendingSep = false
		}
		b.WriteRune(r)
		n++
		if n >= maxNameRunes {
			break
		}
	}
	return b.String()
}

// ImagePath returns the slash-separated path, relative to the dataset
// directory, of the image rendered from text on the given 1-based line.
func ImagePath(text string, line int) string {
	stem := SanitizeName(text)
	if stem == "" {
		stem = "sample"
	}
	return path.Join(ImagesDir, fmt.Sprintf("%s_%06d.png", stem, line))
}

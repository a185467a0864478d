package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jmylchreest/ocrsynth/internal/security"
)

// MaxCorpusBytes caps the size of a corpus file (64 MiB).
const MaxCorpusBytes = 64 << 20

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Line is one usable corpus entry.
type Line struct {
	// Number is the 1-based line number in the corpus file.
	Number int
	Text   string
}

// Corpus holds the raw corpus bytes and the lines parsed from them.
type Corpus struct {
	Data  []byte
	Lines []Line
}

// LoadCorpus reads and parses the corpus file at path.
func LoadCorpus(path string) (*Corpus, error) {
	f, err := os.Open(path) // #nosec G304 - User-specified corpus path, intended to be read
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("corpus file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()

	c, err := ReadCorpus(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ReadCorpus reads at most MaxCorpusBytes from r and parses them.
func ReadCorpus(r io.Reader) (*Corpus, error) {
	data, err := io.ReadAll(security.NewLimitedReader(r, MaxCorpusBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	lines, err := ParseCorpus(data)
	if err != nil {
		return nil, err
	}
	return &Corpus{Data: data, Lines: lines}, nil
}

// ParseCorpus splits UTF-8 text into trimmed lines, skipping blank ones.
// A leading byte order mark is ignored.
func ParseCorpus(data []byte) ([]Line, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var lines []Line
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)

	n := 0
	for scanner.Scan() {
		n++
		raw := scanner.Bytes()
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("line %d is not valid UTF-8", n)
		}
		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}
		lines = append(lines, Line{Number: n, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan corpus: %w", err)
	}
	return lines, nil
}

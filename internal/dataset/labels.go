package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/ocrsynth/internal/security"
)

// EncodeLabels renders samples as label-file content, one
// "<path>\t<text>\n" record per sample.
func EncodeLabels(samples []Sample) []byte {
	var buf bytes.Buffer
	for _, s := range samples {
		buf.WriteString(s.Path)
		buf.WriteByte('\t')
		buf.WriteString(s.Text)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// WriteLabels atomically writes samples to a label file at path.
func WriteLabels(path string, samples []Sample) error {
	return writeFileAtomic(path, EncodeLabels(samples), 0o644)
}

// ReadLabels parses label-file content. Blank lines are skipped; each other
// line must hold a relative image path and the text, separated by the first
// tab.
func ReadLabels(r io.Reader) ([]Sample, error) {
	var samples []Sample
	scanner := bufio.NewScanner(security.NewLimitedReader(r, MaxCorpusBytes))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		path, text, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: missing tab separator", n)
		}
		if !filepath.IsLocal(filepath.FromSlash(path)) {
			return nil, fmt.Errorf("line %d: image path must stay inside the dataset directory: %s", n, path)
		}
		samples = append(samples, Sample{Path: path, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return samples, nil
}

// ReadLabelsFile reads the label file at path.
func ReadLabelsFile(path string) ([]Sample, error) {
	f, err := os.Open(path) // #nosec G304 - User-specified labels path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open labels: %w", err)
	}
	defer f.Close()

	samples, err := ReadLabels(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// RebaseSamples rewrites sample paths relative to from so they resolve the
// same way relative to to. Every rebased path must stay inside to.
func RebaseSamples(samples []Sample, from, to string) ([]Sample, error) {
	absFrom, err := filepath.Abs(from)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", from, err)
	}
	absTo, err := filepath.Abs(to)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", to, err)
	}
	if absFrom == absTo {
		return samples, nil
	}

	out := make([]Sample, len(samples))
	for i, s := range samples {
		rel, err := filepath.Rel(absTo, filepath.Join(absFrom, filepath.FromSlash(s.Path)))
		if err != nil || !filepath.IsLocal(rel) {
			return nil, fmt.Errorf("image %s lies outside %s: the output directory must contain the labelled images", s.Path, to)
		}
		out[i] = Sample{Path: filepath.ToSlash(rel), Text: s.Text}
	}
	return out, nil
}

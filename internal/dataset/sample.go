// Package dataset drives batch generation: it reads a corpus, renders one
// image per line, and writes the label files and manifest that index them.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
)

// Output layout relative to the dataset directory.
const (
	ImagesDir    = "images"
	LabelsFile   = "labels.txt"
	TrainFile    = "train.txt"
	ValFile      = "val.txt"
	TestFile     = "test.txt"
	ManifestFile = "manifest.json"
)

// Sample is one generated image and its ground-truth text. Path is relative
// to the dataset directory and slash separated.
type Sample struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// writeFileAtomic writes data to a temporary file beside path and renames
// it into place, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Ignore cleanup errors
		return fmt.Errorf("failed to rename %s: %w", path, err)
	}
	return nil
}

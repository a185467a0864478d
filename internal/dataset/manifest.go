package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/ocrsynth/internal/augment"
	"github.com/jmylchreest/ocrsynth/internal/config"
	"github.com/jmylchreest/ocrsynth/internal/seed"
	"github.com/jmylchreest/ocrsynth/internal/version"
)

// Manifest records how a dataset was produced, so a run can be audited or
// replayed.
type Manifest struct {
	RunID      string        `json:"run_id"`
	Version    version.Info  `json:"version"`
	CreatedAt  time.Time     `json:"created_at"`
	Seed       int64         `json:"seed"`
	SeedMode   seed.Mode     `json:"seed_mode"`
	Corpus     string        `json:"corpus,omitempty"`
	Font       string        `json:"font,omitempty"`
	Background string        `json:"background,omitempty"`
	Config     config.Config `json:"config"`
	Counts     Counts        `json:"counts"`
	Samples    []Record      `json:"samples"`
}

// Counts summarises a run.
type Counts struct {
	Candidates int `json:"candidates"`
	Generated  int `json:"generated"`
	Skipped    int `json:"skipped"`
	Train      int `json:"train"`
	Val        int `json:"val"`
	Test       int `json:"test"`
}

// Record describes one generated sample.
type Record struct {
	Sample
	Line     int            `json:"line"`
	Split    string         `json:"split"`
	Params   augment.Params `json:"params"`
	FontSize int            `json:"font_size"`
	Tilted   bool           `json:"tilted"`
	Fill     string         `json:"fill"`
	Contrast float64        `json:"contrast"`
}

// NewManifest creates a manifest with a fresh run ID.
func NewManifest(s int64, mode seed.Mode, cfg config.Config) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		Version:   version.GetInfo(),
		CreatedAt: time.Now().UTC(),
		Seed:      s,
		SeedMode:  mode,
		Config:    cfg,
	}
}

// ApplySplit records the part each sample landed in and updates the split
// counts. Samples missing from s are left unassigned.
func (m *Manifest) ApplySplit(s Split) {
	partOf := make(map[string]string, s.Len())
	for _, p := range s.Parts() {
		for _, sample := range p.Samples {
			partOf[sample.Path] = p.Name
		}
	}
	for i := range m.Samples {
		m.Samples[i].Split = partOf[m.Samples[i].Path]
	}
	m.Counts.Train = len(s.Train)
	m.Counts.Val = len(s.Val)
	m.Counts.Test = len(s.Test)
}

// Write atomically writes the manifest as indented JSON.
func (m *Manifest) Write(path string) error {
	// SetEscapeHTML(false) keeps corpus text such as "<b>" readable.
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := writeFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by Write.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 - User-specified manifest path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

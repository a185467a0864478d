package dataset

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/ocrsynth/internal/augment"
	"github.com/jmylchreest/ocrsynth/internal/colour"
	"github.com/jmylchreest/ocrsynth/internal/config"
	"github.com/jmylchreest/ocrsynth/internal/seed"
)

// progressEvery controls how often the generator logs progress.
const progressEvery = 100

// FrameRenderer turns text into a finished frame. *augment.Pipeline
// satisfies it.
type FrameRenderer interface {
	Generate(text string, r augment.Rand) (*augment.Result, error)
}

// Options configures a generation run.
type Options struct {
	// OutputDir receives images/, the label files and the manifest.
	OutputDir string

	// Config is recorded in the manifest; its Split ratios drive the split.
	Config config.Config

	Seed     int64
	SeedMode seed.Mode

	// Limit caps the number of corpus lines used. Zero means all.
	Limit int

	// Corpus, Font and Background are recorded in the manifest only.
	Corpus     string
	Font       string
	Background string
}

// Report summarises a finished run.
type Report struct {
	OutputDir  string
	Candidates int
	Generated  int
	Skipped    int
	Split      Split
	Manifest   *Manifest
	Elapsed    time.Duration
}

// Generator renders a corpus into a dataset directory.
type Generator struct {
	renderer FrameRenderer
	opts     Options
	logger   hclog.Logger
}

// NewGenerator creates a generator writing into opts.OutputDir.
func NewGenerator(renderer FrameRenderer, opts Options, logger hclog.Logger) (*Generator, error) {
	if renderer == nil {
		return nil, fmt.Errorf("renderer cannot be nil")
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, got %d", opts.Limit)
	}
	if err := opts.Config.Split.Validate(); err != nil {
		return nil, fmt.Errorf("invalid split: %w", err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Generator{
		renderer: renderer,
		opts:     opts,
		logger:   logger.Named("dataset"),
	}, nil
}

// Run renders one image per line, then splits the generated samples once
// and writes the label files and manifest. A line that fails to render or
// write is logged and skipped; it never aborts the run. Label files are only
// written after every image is on disk.
func (g *Generator) Run(ctx context.Context, lines []Line) (*Report, error) {
	start := time.Now()
	if g.opts.Limit > 0 && len(lines) > g.opts.Limit {
		lines = lines[:g.opts.Limit]
	}

	imagesDir := filepath.Join(g.opts.OutputDir, ImagesDir)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil { // #nosec G301 - Dataset directories need standard permissions
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	m := NewManifest(g.opts.Seed, g.opts.SeedMode, g.opts.Config)
	m.Corpus = g.opts.Corpus
	m.Font = g.opts.Font
	m.Background = g.opts.Background

	g.logger.Info("generating dataset", "lines", len(lines), "output", g.opts.OutputDir, "seed", g.opts.Seed)

	rng := seed.New(g.opts.Seed)
	samples := make([]Sample, 0, len(lines))
	records := make([]Record, 0, len(lines))
	skipped := 0

	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation interrupted after %d of %d lines: %w", i, len(lines), err)
		}

		rec, err := g.generateOne(line, rng)
		if err != nil {
			g.logger.Warn("skipping sample", "line", line.Number, "text", line.Text, "error", err)
			skipped++
			continue
		}
		samples = append(samples, rec.Sample)
		records = append(records, *rec)

		if done := i + 1; done%progressEvery == 0 {
			g.logger.Info("progress", "done", done, "total", len(lines), "skipped", skipped)
		}
	}

	split := SplitSamples(samples, g.opts.Config.Split, rng)

	if err := WriteSplit(g.opts.OutputDir, split); err != nil {
		return nil, err
	}
	if err := WriteLabels(filepath.Join(g.opts.OutputDir, LabelsFile), samples); err != nil {
		return nil, fmt.Errorf("failed to write labels: %w", err)
	}

	m.Counts = Counts{
		Candidates: len(lines),
		Generated:  len(samples),
		Skipped:    skipped,
	}
	m.Samples = records
	m.ApplySplit(split)
	if err := m.Write(filepath.Join(g.opts.OutputDir, ManifestFile)); err != nil {
		return nil, err
	}

	report := &Report{
		OutputDir:  g.opts.OutputDir,
		Candidates: len(lines),
		Generated:  len(samples),
		Skipped:    skipped,
		Split:      split,
		Manifest:   m,
		Elapsed:    time.Since(start),
	}
	g.logger.Info("dataset complete",
		"generated", report.Generated,
		"skipped", report.Skipped,
		"train", len(split.Train),
		"val", len(split.Val),
		"test", len(split.Test),
		"elapsed", report.Elapsed.Round(time.Millisecond),
	)
	return report, nil
}

// generateOne renders, encodes and writes the image for one line.
func (g *Generator) generateOne(line Line, rng augment.Rand) (*Record, error) {
	res, err := g.renderer.Generate(line.Text, rng)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, res.Image); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	rel := ImagePath(line.Text, line.Number)
	if err := writeFileAtomic(filepath.Join(g.opts.OutputDir, filepath.FromSlash(rel)), buf.Bytes(), 0o644); err != nil {
		return nil, err
	}

	contrast := colour.ContrastRatio(res.Params.Fill, res.BackgroundMean)
	g.logger.Debug("generated sample",
		"line", line.Number,
		"path", rel,
		"font_size", res.FontSize,
		"rotation", fmt.Sprintf("%.2f", res.Params.Rotation),
		"tilt", res.Params.Tilt,
		"contrast", fmt.Sprintf("%.2f", contrast),
	)

	return &Record{
		Sample:   Sample{Path: rel, Text: line.Text},
		Line:     line.Number,
		Params:   res.Params,
		FontSize: res.FontSize,
		Tilted:   res.Tilted,
		Fill:     res.Params.Fill.Hex(),
		Contrast: math.Round(contrast*100) / 100,
	}, nil
}

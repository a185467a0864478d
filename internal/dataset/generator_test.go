package dataset

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/ocrsynth/internal/augment"
	"github.com/jmylchreest/ocrsynth/internal/colour"
	"github.com/jmylchreest/ocrsynth/internal/config"
	"github.com/jmylchreest/ocrsynth/internal/seed"
)

// fakeRenderer paints an 8x8 tile in a random colour, failing for texts in
// fail. It draws from r like the real pipeline does.
type fakeRenderer struct {
	fail map[string]error
}

func (f *fakeRenderer) Generate(text string, r augment.Rand) (*augment.Result, error) {
	fill := colour.RGB{R: uint8(r.Intn(256)), G: uint8(r.Intn(256)), B: uint8(r.Intn(256))}
	if err, ok := f.fail[text]; ok {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: fill.R, G: fill.G, B: fill.B, A: 255})
		}
	}
	return &augment.Result{
		Image:    img,
		Params:   augment.Params{FontSize: 30, Fill: fill},
		FontSize: 30,
	}, nil
}

func testLines(texts ...string) []Line {
	lines := make([]Line, len(texts))
	for i, text := range texts {
		lines[i] = Line{Number: i + 1, Text: text}
	}
	return lines
}

func runGenerator(t *testing.T, r FrameRenderer, opts Options, lines []Line) *Report {
	t.Helper()
	g, err := NewGenerator(r, opts, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	report, err := g.Run(context.Background(), lines)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return report
}

func TestNewGeneratorErrors(t *testing.T) {
	badSplit := config.Default()
	badSplit.Split.Train = 0.9
	badSplit.Split.Val = 0.3

	tests := []struct {
		name     string
		renderer FrameRenderer
		opts     Options
		wantErr  string
	}{
		{"nil renderer", nil, Options{OutputDir: "out", Config: config.Default()}, "renderer"},
		{"no output", &fakeRenderer{}, Options{Config: config.Default()}, "output directory"},
		{"negative limit", &fakeRenderer{}, Options{OutputDir: "out", Config: config.Default(), Limit: -1}, "limit"},
		{"bad split", &fakeRenderer{}, Options{OutputDir: "out", Config: badSplit}, "split"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(tt.renderer, tt.opts, nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewGenerator() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGeneratorRun(t *testing.T) {
	dir := t.TempDir()
	lines := testLines("one", "two", "three", "EMPTY", "five", "six", "seven", "eight", "nine", "ten")
	r := &fakeRenderer{fail: map[string]error{"EMPTY": augment.ErrEmptyContent}}
	opts := Options{OutputDir: dir, Config: config.Default(), Seed: 99, SeedMode: seed.ModeManual, Font: "goregular"}

	report := runGenerator(t, r, opts, lines)

	if report.Generated != 9 || report.Skipped != 1 {
		t.Errorf("generated/skipped = %d/%d, want 9/1", report.Generated, report.Skipped)
	}
	if report.Generated+report.Skipped != report.Candidates {
		t.Errorf("generated + skipped = %d, want %d", report.Generated+report.Skipped, report.Candidates)
	}
	if got := report.Split; len(got.Train) != 7 || len(got.Val) != 2 || len(got.Test) != 0 {
		t.Errorf("split = %d/%d/%d, want 7/2/0", len(got.Train), len(got.Val), len(got.Test))
	}

	// labels.txt keeps generation order and omits the skipped line.
	labels, err := ReadLabelsFile(filepath.Join(dir, LabelsFile))
	if err != nil {
		t.Fatalf("ReadLabelsFile() error = %v", err)
	}
	var texts []string
	for _, s := range labels {
		texts = append(texts, s.Text)

		f, err := os.Open(filepath.Join(dir, filepath.FromSlash(s.Path)))
		if err != nil {
			t.Errorf("image for %q missing: %v", s.Text, err)
			continue
		}
		cfg, err := png.DecodeConfig(f)
		_ = f.Close()
		if err != nil || cfg.Width != 8 || cfg.Height != 8 {
			t.Errorf("image for %q: config %+v, error %v", s.Text, cfg, err)
		}
	}
	wantTexts := []string{"one", "two", "three", "five", "six", "seven", "eight", "nine", "ten"}
	if diff := cmp.Diff(wantTexts, texts); diff != "" {
		t.Errorf("labels.txt mismatch (-want +got):\n%s", diff)
	}

	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(ImagePath("EMPTY", 4)))); !os.IsNotExist(err) {
		t.Errorf("skipped sample left an image behind: %v", err)
	}

	m, err := ReadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	wantCounts := Counts{Candidates: 10, Generated: 9, Skipped: 1, Train: 7, Val: 2, Test: 0}
	if diff := cmp.Diff(wantCounts, m.Counts); diff != "" {
		t.Errorf("manifest counts mismatch (-want +got):\n%s", diff)
	}
	if m.Seed != 99 || m.SeedMode != seed.ModeManual || m.Font != "goregular" || m.RunID == "" {
		t.Errorf("manifest header = seed %d mode %q font %q run %q", m.Seed, m.SeedMode, m.Font, m.RunID)
	}
	if len(m.Samples) != 9 {
		t.Fatalf("manifest has %d samples, want 9", len(m.Samples))
	}
	for _, rec := range m.Samples {
		if rec.Split != "train" && rec.Split != "val" {
			t.Errorf("sample %s assigned to %q", rec.Path, rec.Split)
		}
		if rec.Fill != rec.Params.Fill.Hex() {
			t.Errorf("sample %s fill %s, params %s", rec.Path, rec.Fill, rec.Params.Fill.Hex())
		}
		if rec.Contrast < 1 || rec.Contrast > 21 {
			t.Errorf("sample %s contrast %v out of range", rec.Path, rec.Contrast)
		}
	}
}

func TestGeneratorDeterministicSplit(t *testing.T) {
	lines := testLines("a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l")
	dirA, dirB := t.TempDir(), t.TempDir()

	runGenerator(t, &fakeRenderer{}, Options{OutputDir: dirA, Config: config.Default(), Seed: 5}, lines)
	runGenerator(t, &fakeRenderer{}, Options{OutputDir: dirB, Config: config.Default(), Seed: 5}, lines)

	for _, name := range []string{TrainFile, ValFile, TestFile, LabelsFile} {
		a, errA := os.ReadFile(filepath.Join(dirA, name))
		b, errB := os.ReadFile(filepath.Join(dirB, name))
		if errA != nil || errB != nil {
			t.Fatalf("read %s: %v, %v", name, errA, errB)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("%s differs between runs with the same seed", name)
		}
	}
}

func TestGeneratorLimit(t *testing.T) {
	lines := testLines("a", "b", "c", "d", "e")
	report := runGenerator(t, &fakeRenderer{}, Options{OutputDir: t.TempDir(), Config: config.Default(), Limit: 3}, lines)
	if report.Candidates != 3 || report.Generated != 3 {
		t.Errorf("candidates/generated = %d/%d, want 3/3", report.Candidates, report.Generated)
	}
}

func TestGeneratorNoLines(t *testing.T) {
	dir := t.TempDir()
	report := runGenerator(t, &fakeRenderer{}, Options{OutputDir: dir, Config: config.Default()}, nil)
	if report.Split.Len() != 0 {
		t.Errorf("split has %d samples, want 0", report.Split.Len())
	}
	for _, name := range []string{TrainFile, ValFile, TestFile, LabelsFile, ManifestFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestGeneratorAllSkipped(t *testing.T) {
	boom := errors.New("boom")
	r := &fakeRenderer{fail: map[string]error{"x": boom, "y": augment.ErrEmptyContent}}
	report := runGenerator(t, r, Options{OutputDir: t.TempDir(), Config: config.Default()}, testLines("x", "y"))
	if report.Generated != 0 || report.Skipped != 2 {
		t.Errorf("generated/skipped = %d/%d, want 0/2", report.Generated, report.Skipped)
	}
}

func TestGeneratorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	g, err := NewGenerator(&fakeRenderer{}, Options{OutputDir: dir, Config: config.Default()}, nil)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if _, err := g.Run(ctx, testLines("a")); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(dir, LabelsFile)); !os.IsNotExist(err) {
		t.Error("cancelled run wrote label files")
	}
}

func TestGeneratorWithPipelineIsReproducible(t *testing.T) {
	f, err := augment.LoadFont("goregular")
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Frame.Width, cfg.Frame.Height = 160, 96
	cfg.Augment.FontSize = config.IntRange{Min: 20, Max: 48}

	bg := image.NewNRGBA(image.Rect(0, 0, 160, 96))
	for y := 0; y < 96; y++ {
		for x := 0; x < 160; x++ {
			bg.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(2 * y), B: 90, A: 255})
		}
	}

	lines := testLines("Synthetic", "ข้อความ", "42", "   ", "mixed Case text")
	run := func(dir string) *Report {
		p, err := augment.New(f, bg, cfg, nil)
		if err != nil {
			t.Fatalf("augment.New() error = %v", err)
		}
		return runGenerator(t, p, Options{OutputDir: dir, Config: cfg, Seed: 2024}, lines)
	}

	dirA, dirB := t.TempDir(), t.TempDir()
	a, b := run(dirA), run(dirB)
	if a.Generated != b.Generated || a.Generated == 0 {
		t.Fatalf("generated %d and %d samples", a.Generated, b.Generated)
	}

	for _, s := range a.Manifest.Samples {
		imgA, errA := os.ReadFile(filepath.Join(dirA, filepath.FromSlash(s.Path)))
		imgB, errB := os.ReadFile(filepath.Join(dirB, filepath.FromSlash(s.Path)))
		if errA != nil || errB != nil {
			t.Fatalf("read %s: %v, %v", s.Path, errA, errB)
		}
		if !bytes.Equal(imgA, imgB) {
			t.Errorf("%s differs between runs with the same seed", s.Path)
		}

		cfgA, err := png.DecodeConfig(bytes.NewReader(imgA))
		if err != nil {
			t.Fatalf("decode %s: %v", s.Path, err)
		}
		if cfgA.Width != 160 || cfgA.Height != 96 {
			t.Errorf("%s is %dx%d, want 160x96", s.Path, cfgA.Width, cfgA.Height)
		}
	}
}

func TestGeneratorSkipsOversizedText(t *testing.T) {
	f, err := augment.LoadFont("goregular")
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Frame.Width, cfg.Frame.Height = 160, 96
	cfg.Augment.FontSize = config.IntRange{Min: 20, Max: 48}

	p, err := augment.New(f, image.NewNRGBA(image.Rect(0, 0, 160, 96)), cfg, nil)
	if err != nil {
		t.Fatalf("augment.New() error = %v", err)
	}

	dir := t.TempDir()
	long := strings.Repeat("abcdefghij", 30)
	report := runGenerator(t, p, Options{OutputDir: dir, Config: cfg, Seed: 5}, testLines("fits", long))

	if report.Generated != 1 || report.Skipped != 1 {
		t.Fatalf("generated %d, skipped %d; want 1 and 1", report.Generated, report.Skipped)
	}
	labels, err := ReadLabelsFile(filepath.Join(dir, LabelsFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 1 || labels[0].Text != "fits" {
		t.Errorf("labels = %+v, want only the line that fits", labels)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(ImagePath(long, 2)))); !os.IsNotExist(err) {
		t.Error("oversized line still produced an image")
	}
}

func TestManifestApplySplit(t *testing.T) {
	samples := makeSamples(4)
	m := &Manifest{Counts: Counts{Candidates: 5, Generated: 4, Skipped: 1}}
	for _, s := range samples {
		m.Samples = append(m.Samples, Record{Sample: s})
	}

	m.ApplySplit(Split{Train: samples[:2], Val: samples[2:3], Test: samples[3:]})

	var got []string
	for _, rec := range m.Samples {
		got = append(got, rec.Split)
	}
	if diff := cmp.Diff([]string{"train", "train", "val", "test"}, got); diff != "" {
		t.Errorf("record splits mismatch (-want +got):\n%s", diff)
	}
	want := Counts{Candidates: 5, Generated: 4, Skipped: 1, Train: 2, Val: 1, Test: 1}
	if diff := cmp.Diff(want, m.Counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

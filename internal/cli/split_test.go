package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jmylchreest/ocrsynth/internal/dataset"
)

func writeLabels(t *testing.T, dir string, n int) string {
	t.Helper()
	samples := make([]dataset.Sample, n)
	for i := range samples {
		samples[i] = dataset.Sample{Path: fmt.Sprintf("images/s_%06d.png", i+1), Text: fmt.Sprintf("s%d", i+1)}
	}
	path := filepath.Join(dir, dataset.LabelsFile)
	if err := dataset.WriteLabels(path, samples); err != nil {
		t.Fatal(err)
	}
	return path
}

func readCounts(t *testing.T, dir string) []int {
	t.Helper()
	var counts []int
	for _, name := range []string{dataset.TrainFile, dataset.ValFile, dataset.TestFile} {
		samples, err := dataset.ReadLabelsFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("ReadLabelsFile(%s) error = %v", name, err)
		}
		counts = append(counts, len(samples))
	}
	return counts
}

func TestSplitCommand(t *testing.T) {
	dir := t.TempDir()
	labels := writeLabels(t, dir, 10)

	stdout, err := runCLI(t, "split", "--labels", labels)
	if err != nil {
		t.Fatalf("split error = %v", err)
	}
	if !strings.Contains(stdout, "70.0%") {
		t.Errorf("summary missing train share:\n%s", stdout)
	}
	if diff := cmp.Diff([]int{7, 2, 1}, readCounts(t, dir)); diff != "" {
		t.Errorf("split counts mismatch (-want +got):\n%s", diff)
	}

	// Content seeding makes a second run identical.
	first, _ := os.ReadFile(filepath.Join(dir, dataset.TrainFile))
	if _, err := runCLI(t, "split", "--labels", labels, "-q"); err != nil {
		t.Fatalf("split error = %v", err)
	}
	second, _ := os.ReadFile(filepath.Join(dir, dataset.TrainFile))
	if string(first) != string(second) {
		t.Error("repeated split without --seed changed train.txt")
	}
}

func TestSplitCommandRatiosAndOutput(t *testing.T) {
	root := t.TempDir()
	data := filepath.Join(root, "data")
	if err := os.MkdirAll(data, 0o755); err != nil {
		t.Fatal(err)
	}
	labels := writeLabels(t, data, 20)

	stdout, err := runCLI(t, "split", "--labels", labels, "-o", root, "--train-ratio", "0.5", "--val-ratio", "0.25", "--seed", "8")
	if err != nil {
		t.Fatalf("split error = %v", err)
	}
	if diff := cmp.Diff([]int{10, 5, 5}, readCounts(t, root)); diff != "" {
		t.Errorf("split counts mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(stdout, "25.0%") {
		t.Errorf("summary missing target share:\n%s", stdout)
	}

	// Paths now resolve from the output directory.
	train, err := dataset.ReadLabelsFile(filepath.Join(root, dataset.TrainFile))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range train {
		if !strings.HasPrefix(s.Path, "data/images/") {
			t.Errorf("path %q not rebased onto the output directory", s.Path)
		}
	}
}

func TestSplitCommandOutputOutsideImages(t *testing.T) {
	root := t.TempDir()
	data := filepath.Join(root, "data")
	if err := os.MkdirAll(data, 0o755); err != nil {
		t.Fatal(err)
	}
	labels := writeLabels(t, data, 4)
	sibling := filepath.Join(root, "splits")

	_, err := runCLI(t, "split", "--labels", labels, "-o", sibling)
	if err == nil || !strings.Contains(err.Error(), "must contain the labelled images") {
		t.Fatalf("error = %v, want output directory rejection", err)
	}
	if _, err := os.Stat(filepath.Join(sibling, dataset.TrainFile)); !os.IsNotExist(err) {
		t.Error("rejected split still wrote train.txt")
	}
}

func TestSplitCommandUpdatesManifest(t *testing.T) {
	dir, corpus, bg := writeFixtures(t, tenLines...)
	out := filepath.Join(dir, "dataset")
	if _, err := runCLI(t, generateArgs(corpus, bg, out, "-q")...); err != nil {
		t.Fatalf("generate error = %v", err)
	}

	if _, err := runCLI(t, "split", "--labels", filepath.Join(out, dataset.LabelsFile), "--train-ratio", "0.5", "-q"); err != nil {
		t.Fatalf("split error = %v", err)
	}

	m, err := dataset.ReadManifest(filepath.Join(out, dataset.ManifestFile))
	if err != nil {
		t.Fatal(err)
	}
	if m.Config.Split.Train != 0.5 {
		t.Errorf("manifest train ratio = %v, want 0.5", m.Config.Split.Train)
	}
	if m.Counts.Train != 5 || m.Counts.Val != 2 || m.Counts.Test != 3 {
		t.Errorf("manifest counts = %+v, want 5/2/3", m.Counts)
	}
	perSplit := map[string]int{}
	for _, rec := range m.Samples {
		perSplit[rec.Split]++
	}
	if diff := cmp.Diff(map[string]int{"train": 5, "val": 2, "test": 3}, perSplit); diff != "" {
		t.Errorf("record splits mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitCommandErrors(t *testing.T) {
	dir := t.TempDir()
	labels := writeLabels(t, dir, 3)
	bad := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(bad, []byte("no tab here\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no labels flag", []string{"split"}, "required flag"},
		{"missing file", []string{"split", "--labels", filepath.Join(dir, "none.txt")}, "failed to read labels"},
		{"malformed labels", []string{"split", "--labels", bad}, "missing tab"},
		{"ratios over one", []string{"split", "--labels", labels, "--train-ratio", "0.9", "--val-ratio", "0.2"}, "invalid split"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

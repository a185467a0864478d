package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ocrsynth/internal/config"
	"github.com/jmylchreest/ocrsynth/internal/dataset"
	"github.com/jmylchreest/ocrsynth/internal/seed"
)

// splitOptions holds the split command flags.
type splitOptions struct {
	labels     string
	output     string
	seed       int64
	trainRatio float64
	valRatio   float64
}

func newSplitCmd() *cobra.Command {
	opts := &splitOptions{}
	def := config.Default().Split

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Re-split an existing label file into train/val/test",
		Long: `Shuffle the samples of a label file and write train.txt, val.txt and
test.txt with the same splitter generate uses.

Ratios default to those recorded in a manifest.json beside the label file,
falling back to the built-in defaults. Without --seed the split is seeded
from the label file contents, so repeated runs agree.

Image paths are rewritten relative to --output, which must therefore contain
the images: the label file's directory or one of its parents.

Examples:
  # Re-split a dataset in place with a new seed
  ocrsynth split --labels dataset/labels.txt --seed 7

  # 80/10/10 split written to the working directory
  ocrsynth split --labels dataset/labels.txt --train-ratio 0.8 --val-ratio 0.1 -o .`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.labels, "labels", "", "label file to split (required)")
	f.StringVarP(&opts.output, "output", "o", "", "output directory (default: the label file's directory)")
	f.Int64Var(&opts.seed, "seed", 0, "shuffle seed (default: derived from the label file)")
	f.Float64Var(&opts.trainRatio, config.FlagTrainRatio, def.Train, "share of samples assigned to train")
	f.Float64Var(&opts.valRatio, config.FlagValRatio, def.Val, "share of samples assigned to val")
	_ = cmd.MarkFlagRequired("labels")

	return cmd
}

// runSplit executes the split command.
func runSplit(cmd *cobra.Command, opts *splitOptions) error {
	logger := newLogger(cmd)

	data, err := os.ReadFile(opts.labels) // #nosec G304 - User-specified labels path, intended to be read
	if err != nil {
		return fmt.Errorf("failed to read labels: %w", err)
	}
	samples, err := dataset.ReadLabels(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", opts.labels, err)
	}

	labelsDir := filepath.Dir(opts.labels)
	outDir := opts.output
	if outDir == "" {
		outDir = labelsDir
	}
	if samples, err = dataset.RebaseSamples(samples, labelsDir, outDir); err != nil {
		return err
	}

	// A manifest beside the labels supplies ratios and is kept in step
	// when the split is written back into the same directory.
	manifestPath := filepath.Join(labelsDir, dataset.ManifestFile)
	manifest, err := dataset.ReadManifest(manifestPath)
	if err != nil {
		logger.Debug("no usable manifest beside labels", "path", manifestPath, "error", err)
	}

	ratios := config.Default().Split
	if manifest != nil {
		ratios = manifest.Config.Split
	}
	if cmd.Flags().Changed(config.FlagTrainRatio) {
		ratios.Train = opts.trainRatio
	}
	if cmd.Flags().Changed(config.FlagValRatio) {
		ratios.Val = opts.valRatio
	}
	if err := ratios.Validate(); err != nil {
		return fmt.Errorf("invalid split: %w", err)
	}

	seedCfg := seed.Config{Mode: seed.ModeContent}
	if cmd.Flags().Changed("seed") {
		seedCfg = seed.Config{Mode: seed.ModeManual, Value: &opts.seed}
	}
	s, err := seed.Calculate(data, seedCfg)
	if err != nil {
		return err
	}
	logger.Info("splitting labels", "samples", len(samples), "seed", s, "train", ratios.Train, "val", ratios.Val, "test", ratios.Test())

	if err := os.MkdirAll(outDir, 0o755); err != nil { // #nosec G301 - Dataset directories need standard permissions
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	split := dataset.SplitSamples(samples, ratios, seed.New(s))
	if err := dataset.WriteSplit(outDir, split); err != nil {
		return err
	}

	if manifest != nil && sameDir(outDir, labelsDir) {
		manifest.Config.Split = ratios
		manifest.ApplySplit(split)
		if err := manifest.Write(manifestPath); err != nil {
			return err
		}
		logger.Debug("manifest updated", "path", manifestPath)
	}

	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		printSummary(cmd.OutOrStdout(), outDir, split, ratios)
	}
	return nil
}

// sameDir reports whether a and b resolve to the same directory.
func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

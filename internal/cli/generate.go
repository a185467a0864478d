package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/ocrsynth/internal/augment"
	"github.com/jmylchreest/ocrsynth/internal/compression"
	"github.com/jmylchreest/ocrsynth/internal/config"
	"github.com/jmylchreest/ocrsynth/internal/dataset"
	"github.com/jmylchreest/ocrsynth/internal/image"
	"github.com/jmylchreest/ocrsynth/internal/seed"
)

// generateOptions holds the generate command flags.
type generateOptions struct {
	corpus     string
	font       string
	background string
	output     string
	configPath string
	profile    string
	seedMode   string
	seed       int64
	archive    string
	limit      int
	overrides  *config.Overrides
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render a corpus into a labelled image dataset",
		Long: `Render every non-blank line of a corpus onto the background, one image per
line, and write train/val/test label files.

Output layout:
  <output>/images/<text>_<line>.png
  <output>/labels.txt               every sample, in corpus order
  <output>/train.txt, val.txt, test.txt
  <output>/manifest.json            seed, configuration and per-sample parameters

Configuration is layered: built-in defaults, then --profile, then --config,
then any explicitly set flag.

Examples:
  # Basic run with a built-in font
  ocrsynth generate --corpus thai.txt --font goregular --background paper.jpg

  # Reproducible run with an explicit seed
  ocrsynth generate --corpus lines.txt --font Sarabun.ttf --background bg.png --seed 42

  # Compact profile, 256x64 frames, packed as tar.xz
  ocrsynth generate --corpus lines.txt --font Sarabun.ttf --background bg.png \
    --profile compact --frame-width 256 --frame-height 64 --archive tar.xz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.corpus, "corpus", "", "text corpus, one sample per line (required)")
	f.StringVar(&opts.font, "font", "", "TTF/OTF font file, or goregular, gobold, gomono (required)")
	f.StringVar(&opts.background, "background", "", "background image file or https URL (required)")
	f.StringVarP(&opts.output, "output", "o", "dataset", "output directory")
	f.StringVarP(&opts.configPath, "config", "c", "", "TOML configuration file")
	f.StringVar(&opts.profile, "profile", "", fmt.Sprintf("configuration profile (%s)", strings.Join(config.Profiles(), ", ")))
	f.StringVar(&opts.seedMode, "seed-mode", string(seed.ModeContent), "seed mode (content, manual, random)")
	f.Int64Var(&opts.seed, "seed", 0, "seed value; implies --seed-mode manual")
	f.StringVar(&opts.archive, "archive", "", "also pack the output directory (tar.xz, tar.gz, zip)")
	f.IntVar(&opts.limit, "limit", 0, "use at most this many corpus lines (0 for all)")
	opts.overrides = config.BindFlags(f)

	_ = cmd.MarkFlagRequired("corpus")
	_ = cmd.MarkFlagRequired("font")
	_ = cmd.MarkFlagRequired("background")

	return cmd
}

// runGenerate executes the generate command.
func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	ctx := cmd.Context()
	logger := newLogger(cmd)

	cfg, err := resolveConfig(opts.profile, opts.configPath, opts.overrides)
	if err != nil {
		return err
	}

	seedCfg, err := seedConfig(cmd, opts.seedMode, opts.seed)
	if err != nil {
		return err
	}

	var format compression.Format
	if opts.archive != "" {
		if format, err = compression.ParseFormat(opts.archive); err != nil {
			return err
		}
	}

	corpus, err := dataset.LoadCorpus(opts.corpus)
	if err != nil {
		return err
	}
	if len(corpus.Lines) == 0 {
		logger.Warn("corpus has no usable lines", "corpus", opts.corpus)
	}

	font, err := augment.LoadFont(opts.font)
	if err != nil {
		return err
	}

	if err := image.ValidateImagePath(opts.background); err != nil {
		return fmt.Errorf("invalid background: %w", err)
	}
	bg, err := image.LoadBackground(image.NewSmartLoader(ctx), opts.background, cfg.Frame.Width, cfg.Frame.Height)
	if err != nil {
		return err
	}

	runSeed, err := seed.Calculate(corpus.Data, seedCfg)
	if err != nil {
		return err
	}
	logger.Info("resolved seed", "seed", runSeed, "mode", seedCfg.Mode)

	pipeline, err := augment.New(font, bg, cfg, logger)
	if err != nil {
		return err
	}

	gen, err := dataset.NewGenerator(pipeline, dataset.Options{
		OutputDir:  opts.output,
		Config:     cfg,
		Seed:       runSeed,
		SeedMode:   seedCfg.Mode,
		Limit:      opts.limit,
		Corpus:     opts.corpus,
		Font:       opts.font,
		Background: opts.background,
	}, logger)
	if err != nil {
		return err
	}

	report, err := gen.Run(ctx, corpus.Lines)
	if err != nil {
		return err
	}

	notes := []string{
		fmt.Sprintf("Generated %d of %d lines (%d skipped) in %s", report.Generated, report.Candidates, report.Skipped, report.Elapsed.Round(time.Millisecond)),
	}
	if format != "" {
		archived, err := packDataset(opts.output, format, logger)
		if err != nil {
			return err
		}
		notes = append(notes, fmt.Sprintf("Archive: %s (%d files)", archived.Path, archived.Files))
	}

	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		printSummary(cmd.OutOrStdout(), opts.output, report.Split, cfg.Split, notes...)
	}
	return nil
}

// resolveConfig layers defaults, profile, file and explicit flags, then
// validates the result.
func resolveConfig(profile, path string, overrides *config.Overrides) (config.Config, error) {
	cfg, err := config.Resolve(profile, path)
	if err != nil {
		return config.Config{}, err
	}
	overrides.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// seedConfig interprets --seed-mode and --seed. An explicit --seed selects
// manual mode unless another mode was also given explicitly.
func seedConfig(cmd *cobra.Command, modeFlag string, value int64) (seed.Config, error) {
	mode, err := seed.ParseMode(modeFlag)
	if err != nil {
		return seed.Config{}, err
	}

	seedSet := cmd.Flags().Changed("seed")
	if seedSet && !cmd.Flags().Changed("seed-mode") {
		mode = seed.ModeManual
	}
	if seedSet && mode != seed.ModeManual {
		return seed.Config{}, fmt.Errorf("--seed requires --seed-mode manual (got %s)", mode)
	}

	cfg := seed.Config{Mode: mode}
	if seedSet {
		cfg.Value = &value
	}
	return cfg, nil
}

// packDataset archives the output directory next to it.
func packDataset(dir string, format compression.Format, logger hclog.Logger) (*compression.Result, error) {
	dest := compression.ArchivePath(dir, format)
	logger.Info("packing dataset", "archive", dest)
	res, err := compression.Pack(dir, dest, format)
	if err != nil {
		return nil, fmt.Errorf("failed to archive dataset: %w", err)
	}
	logger.Debug("archive written", "files", res.Files, "bytes", res.Bytes)
	return res, nil
}

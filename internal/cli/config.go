package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/ocrsynth/internal/config"
)

func newConfigCmd() *cobra.Command {
	var profile, path string
	var overrides *config.Overrides

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Long: `Print the configuration generate would use, after applying the profile,
the config file and any override flags. The output is a valid config file.

Examples:
  # Start a config file from the compact profile
  ocrsynth config --profile compact > ocrsynth.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(profile, path, overrides)
			if err != nil {
				return err
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&profile, "profile", "", fmt.Sprintf("configuration profile (%s)", strings.Join(config.Profiles(), ", ")))
	f.StringVarP(&path, "config", "c", "", "TOML configuration file")
	overrides = config.BindFlags(f)

	return cmd
}

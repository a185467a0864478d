package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadFile overlays the TOML document at path onto c. Keys absent from the
// file keep their current value; unknown keys are rejected.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - User-specified config path, intended to be read
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := c.Decode(string(data)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Decode overlays a TOML document onto c.
func (c *Config) Decode(doc string) error {
	md, err := toml.Decode(doc, c)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Resolve builds the effective configuration: defaults, then the profile,
// then the file (if any).
func Resolve(profile, path string) (Config, error) {
	cfg := Default()
	if profile != "" {
		if err := cfg.ApplyProfile(profile); err != nil {
			return Config{}, err
		}
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

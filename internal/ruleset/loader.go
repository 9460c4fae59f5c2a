package ruleset

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// LoadOverlay reads a TOML rule file and applies it on top of a built-in
// profile. The file's ruleset_type selects the base profile (standard when
// absent); any field present in the file overrides the base value.
func LoadOverlay(path string) (Config, error) {
	var probe struct {
		RulesetType string `toml:"ruleset_type"`
	}
	if _, err := toml.DecodeFile(path, &probe); err != nil {
		return Config{}, fmt.Errorf("read rule file %s: %w", path, err)
	}

	cfg, err := Profile(probe.RulesetType)
	if err != nil {
		return Config{}, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse rule file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("rule file %s: %w", path, err)
	}
	return cfg, nil
}

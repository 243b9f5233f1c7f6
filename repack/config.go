package repack

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config controls overflow resolution.
type Config struct {
	// MaxRounds limits the number of duplicate/priority rounds.
	MaxRounds int `toml:"max_rounds"`
	// SplitSubtables enables splitting of oversized GSUB/GPOS subtables.
	SplitSubtables bool `toml:"split_subtables"`
}

// DefaultConfig returns the configuration used if clients do not provide one.
func DefaultConfig() Config {
	return Config{
		MaxRounds:      32,
		SplitSubtables: true,
	}
}

// LoadConfig reads a TOML configuration file. Keys missing from the file
// keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.MaxRounds < 0 {
		return cfg, fmt.Errorf("config %s: max_rounds must not be negative", path)
	}
	return cfg, nil
}

// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Audio    AudioConfig    `toml:"audio"`
}

// PracticeConfig maps trainer settings shared by practice and live-copy
// modes. Pointer fields distinguish "unset" from explicit zero values;
// CLI flags override anything set here.
type PracticeConfig struct {
	WPM        *float64 `toml:"wpm"`
	Tier       *string  `toml:"tier"`
	Farnsworth *float64 `toml:"farnsworth"`
	Chars      *string  `toml:"chars"`
	Groups     *int     `toml:"groups"`
	GroupSize  *int     `toml:"group-size"`
	OffsetMs   *int64   `toml:"offset-ms"`
	UpdateMs   *int     `toml:"update-ms"`
	FocusWeak  *bool    `toml:"focus-weak"`
	WeakTop    *int     `toml:"weak-top"`
	WeakFactor *float64 `toml:"weak-factor"`
	WeakWindow *int     `toml:"weak-window"`
}

// AudioConfig maps tone keyer settings.
type AudioConfig struct {
	FreqHz  *float64 `toml:"freq"`
	Volume  *float64 `toml:"volume"`
	NoAudio *bool    `toml:"no-audio"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

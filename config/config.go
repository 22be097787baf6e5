// Package config loads the engine configuration from YAML and watches it
// for changes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	MaxLiveChannels  int      `yaml:"max_live_channels"`
	DuckingThreshold int      `yaml:"ducking_threshold"`
	AutoDucking      bool     `yaml:"auto_ducking"`
	MusicVolume      float64  `yaml:"music_volume"`
	EffectsVolume    float64  `yaml:"effects_volume"`
	Playlist         []string `yaml:"playlist"`
	PickerScript     string   `yaml:"picker_script"`
}

func Default() Config {
	return Config{
		MaxLiveChannels:  8,
		DuckingThreshold: 4,
		AutoDucking:      true,
		MusicVolume:      0.8,
		EffectsVolume:    1.0,
	}
}

func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.clamp()
	return cfg, nil
}

func (c *Config) clamp() {
	if c.MaxLiveChannels < 1 {
		c.MaxLiveChannels = 1
	}
	if c.DuckingThreshold < 1 {
		c.DuckingThreshold = 1
	}
	c.MusicVolume = clamp01(c.MusicVolume)
	c.EffectsVolume = clamp01(c.EffectsVolume)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

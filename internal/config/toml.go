// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Path   PathConfig   `toml:"path"`
	Review ReviewConfig `toml:"review"`
	Log    LogConfig    `toml:"log"`
}

// PathConfig maps the data directories. Key names follow the processing
// pipeline's parameter files.
type PathConfig struct {
	ImagePath *string `toml:"image_path"`
	RFPath    *string `toml:"RF_path"`
	OutPath   *string `toml:"out_path"`
}

// ReviewConfig maps review display settings.
type ReviewConfig struct {
	PageSize  *int     `toml:"page-size"`
	Scale     *float64 `toml:"scale"`
	TimeMin   *float64 `toml:"time-min"`
	TimeMax   *float64 `toml:"time-max"`
	Component *string  `toml:"component"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	Dir   *string `toml:"dir"`
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
	return decodeFile(path)
}

// LoadExplicitConfig reads a config the user named on the command line; the
// file must exist.
func LoadExplicitConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	return decodeFile(path)
}

// decodeFile ignores keys it does not map; pipeline parameter files carry
// settings for other processing steps.
func decodeFile(path string) (FileConfig, error) {
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

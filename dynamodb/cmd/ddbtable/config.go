package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFileName = "ddbtable.yaml"

// Config holds defaults for every command. Loaded from ddbtable.yaml if
// present.
type Config struct {
	Region   string `yaml:"region"`
	Profile  string `yaml:"profile"`
	Endpoint string `yaml:"endpoint"`

	// Capacity is the number of rows buffered before each flush.
	Capacity int `yaml:"capacity"`

	// DataDir spills tables to BadgerDB in this directory instead of
	// holding them in memory.
	DataDir string `yaml:"dataDir"`

	Format string `yaml:"format"`
}

// LoadConfig searches for ddbtable.yaml starting from the current directory
// and walking up to the filesystem root. Returns an empty config if not found.
func LoadConfig() (Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return Config{}, nil
	}
	return loadConfigFrom(dir)
}

func loadConfigFrom(dir string) (Config, error) {
	var cfg Config

	path := findConfigFile(dir)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func findConfigFile(dir string) string {
	for {
		path := filepath.Join(dir, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}

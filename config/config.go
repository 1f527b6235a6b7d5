// Package config loads the application configuration: where the product
// database, schedule file and city list live, and where the API listens.
// A <name>.local.yaml next to the main file overrides individual fields,
// so deployments keep secrets and machine-specific paths out of the
// committed config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	API      APIConfig      `yaml:"api"`
	Cities   CitiesConfig   `yaml:"cities"`
	Enrich   EnrichConfig   `yaml:"enrich"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ScheduleConfig struct {
	ConfigPath string `yaml:"config_path"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

type CitiesConfig struct {
	Path string `yaml:"path"`
}

type EnrichConfig struct {
	ProgressPath string `yaml:"progress_path"`
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		Database: DatabaseConfig{Path: "supermercat.db"},
		Schedule: ScheduleConfig{ConfigPath: "schedule.yaml"},
		API:      APIConfig{Addr: ":8080"},
		Cities:   CitiesConfig{Path: "data/cities_es.json"},
		Enrich:   EnrichConfig{ProgressPath: "enrich_progress.json"},
	}
}

// Load reads the configuration at path and merges, in priority order:
// local overrides (<name>.local.yaml), the file itself, then the built-in
// defaults. A missing file is not an error.
func Load(path string) (AppConfig, error) {
	config, err := readFile(path)
	if err != nil {
		return config, err
	}

	override, err := readFile(localPath(path))
	if err != nil {
		return config, err
	}
	if err := mergo.Merge(&config, override, mergo.WithOverride); err != nil {
		return config, fmt.Errorf("failed to merge local overrides: %w", err)
	}

	defaults := Default()
	if err := mergo.Merge(&config, defaults); err != nil {
		return config, fmt.Errorf("failed to apply config defaults: %w", err)
	}
	return config, nil
}

func readFile(path string) (AppConfig, error) {
	var config AppConfig

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// localPath turns config.yaml into config.local.yaml.
func localPath(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, name+".local"+ext)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is read when CASEOBSERVER_CONFIG is not set.
const DefaultPath = "./caseobserver.yaml"

// Load is LoadFrom with the path taken from CASEOBSERVER_CONFIG.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CASEOBSERVER_CONFIG"))
}

// LoadFrom builds the configuration from env-default tags, the YAML file and
// CASEOBSERVER_* variables, later sources winning. An empty path means
// DefaultPath, which may be missing; a path given explicitly must exist.
func LoadFrom(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	var cfg Config

	file := path
	if file == "" {
		file = DefaultPath
	}

	_, statErr := os.Stat(file)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(file, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	case path == "" && errors.Is(statErr, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: file %s: %w", file, statErr)
	}
	return &cfg, nil
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFilename is the default configuration filename.
const DefaultConfigFilename = "cellflow.yaml"

// Load reads the config file at path, loads a sibling .env file when one
// exists, and returns the validated configuration with environment overrides
// and secrets applied.
func Load(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := LoadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML and returns the validated configuration with
// defaults, environment overrides and secrets applied.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := parseConfig(data)
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func parseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// LoadDotEnv loads environment variables from path. A missing file is not an
// error. Variables already set in the process environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// DefaultConfigPath returns the default path for the config file.
// It returns the path in the current working directory.
func DefaultConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return DefaultConfigFilename
	}
	return filepath.Join(cwd, DefaultConfigFilename)
}

// FindConfigFile looks for the config file in the current directory and its
// parents.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return findConfigFrom(cwd)
}

func findConfigFrom(dir string) (string, error) {
	for {
		path := filepath.Join(dir, DefaultConfigFilename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("config file %s not found", DefaultConfigFilename)
}

// Save writes cfg to path as YAML. Secrets are never written.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

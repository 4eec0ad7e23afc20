package handlers

import (
	"fmt"

	"github.com/imamik/cellflow/internal/config"
)

// Factory function variables - can be replaced in tests.
var (
	findConfigFile = config.FindConfigFile
	loadConfigFile = config.Load
)

// loadConfig loads the config at configPath, or the nearest cellflow.yaml
// when configPath is empty.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		path, err := findConfigFile()
		if err != nil {
			return nil, fmt.Errorf("no config file found: %w\nRun 'cellflow init' to create one", err)
		}
		configPath = path
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
	}
	return cfg, nil
}

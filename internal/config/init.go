package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/temirov/repodoc/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"

	defaultConfigurationTemplate = `generate:
  format: markdown
  max_depth: -1
  ignore: []
  source_ignore: []
  no_default_ignore: false
  ignore_file: ""
  contributors: 10
  files: 5
  tokens:
    enabled: false
    model: gpt-4o
  clipboard: false
  save: false
github:
  api_base: https://api.github.com
  timeout: 30s
  pacing: 500ms
  retries: 3
  requests_per_second: 0
`
)

// ErrConfigurationExists indicates init would overwrite an existing file without --force.
var ErrConfigurationExists = errors.New("configuration file already exists")

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
	HomeDirectory    string
}

// InitializeConfiguration writes the default configuration to the requested target and returns its path.
func InitializeConfiguration(options InitOptions) (string, error) {
	destinationPath, resolveErr := resolveInitPath(options)
	if resolveErr != nil {
		return "", resolveErr
	}
	if _, statErr := os.Stat(destinationPath); statErr == nil {
		if !options.Force {
			return "", fmt.Errorf("%w at %s", ErrConfigurationExists, destinationPath)
		}
	} else if !os.IsNotExist(statErr) {
		return "", fmt.Errorf("inspect configuration path %s: %w", destinationPath, statErr)
	}
	if mkdirErr := os.MkdirAll(filepath.Dir(destinationPath), 0o755); mkdirErr != nil {
		return "", fmt.Errorf("create configuration directory %s: %w", filepath.Dir(destinationPath), mkdirErr)
	}
	if writeErr := os.WriteFile(destinationPath, []byte(defaultConfigurationTemplate), 0o600); writeErr != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, writeErr)
	}
	return destinationPath, nil
}

func resolveInitPath(options InitOptions) (string, error) {
	switch options.Target {
	case "", InitTargetLocal:
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			current, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", err)
			}
			workingDirectory = current
		}
		return filepath.Join(workingDirectory, utils.LocalConfigFileName), nil
	case InitTargetGlobal:
		homeDirectory := options.HomeDirectory
		if homeDirectory == "" {
			resolvedHome, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolve home directory for configuration: %w", err)
			}
			homeDirectory = resolvedHome
		}
		return filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName), nil
	default:
		return "", fmt.Errorf("unsupported init target %q", options.Target)
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/temirov/repodoc/internal/utils"
)

const githubTokenKey = "github.token"

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	HomeDirectory    string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command defaults and API access settings.
type ApplicationConfiguration struct {
	Generate GenerateConfiguration `mapstructure:"generate"`
	GitHub   GitHubConfiguration   `mapstructure:"github"`
}

// GenerateConfiguration defines defaults for the generate and tree commands.
type GenerateConfiguration struct {
	Format          string             `mapstructure:"format"`
	MaxDepth        *int               `mapstructure:"max_depth"`
	Ignore          []string           `mapstructure:"ignore"`
	SourceIgnore    []string           `mapstructure:"source_ignore"`
	NoDefaultIgnore *bool              `mapstructure:"no_default_ignore"`
	IgnoreFile      string             `mapstructure:"ignore_file"`
	Contributors    *int               `mapstructure:"contributors"`
	Files           *int               `mapstructure:"files"`
	Tokens          TokenConfiguration `mapstructure:"tokens"`
	Clipboard       *bool              `mapstructure:"clipboard"`
	Save            *bool              `mapstructure:"save"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// GitHubConfiguration configures access to the GitHub API.
type GitHubConfiguration struct {
	APIBase           string        `mapstructure:"api_base"`
	Token             Secret        `mapstructure:"token"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Pacing            time.Duration `mapstructure:"pacing"`
	Retries           *int          `mapstructure:"retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// LoadApplicationConfiguration loads the global file, then the local file, then the environment.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}
	homeDirectory := options.HomeDirectory
	if homeDirectory == "" {
		if resolvedHome, err := os.UserHomeDir(); err == nil {
			homeDirectory = resolvedHome
		}
	}

	var merged ApplicationConfiguration

	if homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if options.ExplicitFilePath != "" {
		if _, statErr := os.Stat(localPath); statErr != nil {
			return ApplicationConfiguration{}, fmt.Errorf("configuration file %s: %w", localPath, statErr)
		}
	}
	localConfig, loadErr := loadConfigurationFromPath(localPath)
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	merged.GitHub = merged.GitHub.merge(loadEnvironmentConfiguration())
	merged.Generate.Ignore = utils.DeduplicatePatterns(merged.Generate.Ignore)
	merged.Generate.SourceIgnore = utils.DeduplicatePatterns(merged.Generate.SourceIgnore)
	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	return filepath.Join(workingDirectory, utils.LocalConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// loadEnvironmentConfiguration reads settings supplied through environment variables.
func loadEnvironmentConfiguration() GitHubConfiguration {
	reader := viper.New()
	if bindErr := reader.BindEnv(githubTokenKey, utils.GitHubTokenEnvironmentVariable); bindErr != nil {
		return GitHubConfiguration{}
	}
	return GitHubConfiguration{Token: Secret(strings.TrimSpace(reader.GetString(githubTokenKey)))}
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Generate = result.Generate.merge(override.Generate)
	result.GitHub = result.GitHub.merge(override.GitHub)
	return result
}

func (config GenerateConfiguration) merge(override GenerateConfiguration) GenerateConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.MaxDepth != nil {
		result.MaxDepth = cloneInt(override.MaxDepth)
	}
	if len(override.Ignore) > 0 {
		result.Ignore = append([]string{}, utils.DeduplicatePatterns(override.Ignore)...)
	}
	if len(override.SourceIgnore) > 0 {
		result.SourceIgnore = append([]string{}, utils.DeduplicatePatterns(override.SourceIgnore)...)
	}
	if override.NoDefaultIgnore != nil {
		result.NoDefaultIgnore = cloneBool(override.NoDefaultIgnore)
	}
	if override.IgnoreFile != "" {
		result.IgnoreFile = override.IgnoreFile
	}
	if override.Contributors != nil {
		result.Contributors = cloneInt(override.Contributors)
	}
	if override.Files != nil {
		result.Files = cloneInt(override.Files)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	if override.Save != nil {
		result.Save = cloneBool(override.Save)
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func (config GitHubConfiguration) merge(override GitHubConfiguration) GitHubConfiguration {
	result := config
	if override.APIBase != "" {
		result.APIBase = override.APIBase
	}
	if override.Token.IsSet() {
		result.Token = override.Token
	}
	if override.Timeout > 0 {
		result.Timeout = override.Timeout
	}
	if override.Pacing > 0 {
		result.Pacing = override.Pacing
	}
	if override.Retries != nil {
		result.Retries = cloneInt(override.Retries)
	}
	if override.RequestsPerSecond > 0 {
		result.RequestsPerSecond = override.RequestsPerSecond
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

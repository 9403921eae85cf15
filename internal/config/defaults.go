package config

import (
	"fmt"
	"time"

	"github.com/a-gn/claude-setup/internal/constants"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultArchiveURL is the snapshot the project installer downloads.
	DefaultArchiveURL = "https://github.com/a-gn/ai-tool-config/archive/refs/heads/main.zip"

	// DefaultRepositoryURL is the repository the user installer clones.
	DefaultRepositoryURL = "https://github.com/a-gn/ai-tool-config.git"
)

// DefaultConfig returns the default claude-setup configuration
func DefaultConfig() *Config {
	packaging := make([]string, len(constants.DefaultPackagingFiles))
	copy(packaging, constants.DefaultPackagingFiles)

	return &Config{
		Source: Source{
			ArchiveURL:    DefaultArchiveURL,
			RepositoryURL: DefaultRepositoryURL,
			ArchiveRoot:   "ai-tool-config-main",
			Timeout:       2 * time.Minute,
		},
		Project: Project{
			Subdir:         "claude/project_setup",
			PackagingFiles: packaging,
		},
		User: User{
			Subdir: "claude/user_setup",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
		},
	}
}

// DefaultConfigYAML returns the default configuration as YAML bytes
func DefaultConfigYAML() ([]byte, error) {
	config := DefaultConfig()
	data, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default config to YAML: %w", err)
	}
	return data, nil
}

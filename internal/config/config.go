package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Source  Source        `yaml:"source"`
	Project Project       `yaml:"project"`
	User    User          `yaml:"user"`
	Logging LoggingConfig `yaml:"logging"`
}

// Source describes where the instruction bundle comes from.
type Source struct {
	ArchiveURL    string        `yaml:"archive_url"`
	RepositoryURL string        `yaml:"repository_url"`
	ArchiveRoot   string        `yaml:"archive_root"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Project configures the project-local installer.
type Project struct {
	Subdir         string   `yaml:"subdir"`
	PackagingFiles []string `yaml:"packaging_files"`
}

// User configures the user-wide installer.
type User struct {
	Subdir string `yaml:"subdir"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// ErrConfigExists is returned by WriteDefault when the file is already there.
var ErrConfigExists = errors.New("config file already exists")

// WriteDefault writes the default configuration to filename, creating its
// directory. An existing file is only replaced when overwrite is set.
func WriteDefault(fileSystem afero.Fs, filename string, overwrite bool) error {
	if _, err := fileSystem.Stat(filename); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", ErrConfigExists, filename)
	}

	data, err := DefaultConfigYAML()
	if err != nil {
		return err
	}

	if err := fileSystem.MkdirAll(filepath.Dir(filename), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := afero.WriteFile(fileSystem, filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file to %s: %w", filename, err)
	}
	return nil
}

// Load reads a YAML config file on top of the defaults.
func Load(fileSystem afero.Fs, filename string) (*Config, error) {
	data, err := afero.ReadFile(fileSystem, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return LoadFromYAML(data)
}

// LoadOrDefault behaves like Load but returns the defaults when the file does not exist.
func LoadOrDefault(fileSystem afero.Fs, filename string) (*Config, error) {
	cfg, err := Load(fileSystem, filename)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// LoadFromYAML loads config from YAML bytes - helper for tests
func LoadFromYAML(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive config validation
func (c *Config) Validate() error {
	if err := validateURL("archive_url", c.Source.ArchiveURL); err != nil {
		return err
	}
	if err := validateURL("repository_url", c.Source.RepositoryURL); err != nil {
		return err
	}
	if c.Source.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}

	for name, subdir := range map[string]string{
		"archive_root":   c.Source.ArchiveRoot,
		"project.subdir": c.Project.Subdir,
		"user.subdir":    c.User.Subdir,
	} {
		if err := validateRelative(name, subdir); err != nil {
			return err
		}
	}

	for _, name := range c.Project.PackagingFiles {
		if name == "" || strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("invalid packaging file name '%s': must be a plain file name", name)
		}
	}

	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required and cannot be empty", field)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s '%s': %w", field, raw, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s '%s': must be an absolute URL", field, raw)
	}
	return nil
}

func validateRelative(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required and cannot be empty", field)
	}
	cleaned := path.Clean(value)
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("invalid %s '%s': must be a relative path inside the repository", field, value)
	}
	return nil
}

// Package storage provides XDG-compliant storage path management for claude-setup.
package storage

import (
	"fmt"
	"path/filepath"

	"github.com/a-gn/claude-setup/internal/constants"
	"github.com/adrg/xdg"
	"github.com/spf13/afero"
)

// Manager handles storage directories with filesystem abstraction
type Manager struct {
	fs afero.Fs
}

// New creates a new storage manager with the given filesystem
func New(fs afero.Fs) *Manager {
	return &Manager{fs: fs}
}

// GetDataDir returns the XDG data directory for claude-setup, creating it if necessary
func (m *Manager) GetDataDir() (string, error) {
	return m.ensure(filepath.Join(xdg.DataHome, constants.AppName))
}

// GetStateDir returns the XDG state directory for claude-setup, creating it if necessary
func (m *Manager) GetStateDir() (string, error) {
	return m.ensure(filepath.Join(xdg.StateHome, constants.AppName))
}

// GetLogPath returns the full path to the log file
func (m *Manager) GetLogPath() (string, error) {
	stateDir, err := m.GetStateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, constants.LogFilename), nil
}

// GetDatabasePath returns the full path to the install history database
func (m *Manager) GetDatabasePath() (string, error) {
	dataDir, err := m.GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, constants.DatabaseFilename), nil
}

// DefaultConfigPath returns the config file location. The directory is not created.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, constants.AppName, constants.ConfigFilename)
}

func (m *Manager) ensure(dir string) (string, error) {
	if err := m.fs.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dir, nil
}

// Package app wires configuration, logging, history and the installers
// together for the command line.
package app

import (
	"errors"
	"io"
	"os"

	"github.com/a-gn/claude-setup/internal/config"
	"github.com/a-gn/claude-setup/internal/console"
	"github.com/a-gn/claude-setup/internal/environment"
	"github.com/a-gn/claude-setup/internal/fetch"
	"github.com/a-gn/claude-setup/internal/history"
	"github.com/a-gn/claude-setup/internal/installer"
	"github.com/a-gn/claude-setup/internal/prompt"
	"github.com/spf13/afero"
)

// ErrHistoryUnavailable is returned when the history database could not be opened.
var ErrHistoryUnavailable = errors.New("install history is unavailable")

// App holds the components one command invocation needs.
type App struct {
	fileSystem afero.Fs
	fetcher    fetch.Fetcher
	cloner     fetch.Cloner
	recorder   history.Recorder
	stdout     io.Writer
	config     *config.Config
	console    *console.Console
	store      *history.Store
	stdin      *os.File
	configPath string
	runID      string
	env        environment.Env
}

// ProjectInstaller builds the project-local installer.
func (a *App) ProjectInstaller() *installer.ProjectInstaller {
	return installer.NewProjectInstaller(a.env, a.fileSystem, a.config, a.fetcher, a.console, a.recorder)
}

// UserInstaller builds the user-wide installer.
func (a *App) UserInstaller() *installer.UserInstaller {
	return installer.NewUserInstaller(a.env, a.fileSystem, a.config, a.cloner, a.console, a.recorder)
}

// NewPrompter opens a prompter on the app's input. Callers close it.
func (a *App) NewPrompter() prompt.Prompter {
	return prompt.New(a.stdin, a.stdout)
}

// History returns the install history store.
func (a *App) History() (*history.Store, error) {
	if a.store == nil {
		return nil, ErrHistoryUnavailable
	}
	return a.store, nil
}

func (a *App) Console() *console.Console {
	return a.console
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) ConfigPath() string {
	return a.configPath
}

func (a *App) FileSystem() afero.Fs {
	return a.fileSystem
}

func (a *App) RunID() string {
	return a.runID
}

// Close releases the history database.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

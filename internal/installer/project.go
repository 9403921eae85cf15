// Package installer places the instruction bundle into a project directory
// or into the user's ~/.claude.
package installer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/a-gn/claude-setup/internal/backup"
	"github.com/a-gn/claude-setup/internal/config"
	"github.com/a-gn/claude-setup/internal/console"
	"github.com/a-gn/claude-setup/internal/constants"
	"github.com/a-gn/claude-setup/internal/environment"
	"github.com/a-gn/claude-setup/internal/fetch"
	"github.com/a-gn/claude-setup/internal/history"
	"github.com/a-gn/claude-setup/internal/languages"
	"github.com/a-gn/claude-setup/internal/logging"
	"github.com/a-gn/claude-setup/internal/prompt"
	"github.com/a-gn/claude-setup/internal/safety"
	"github.com/spf13/afero"
)

// ProjectOptions selects the languages of a project install. Interactive
// takes precedence over Languages; with neither, every language is installed.
type ProjectOptions struct {
	Prompter    prompt.Prompter
	Languages   []string
	Interactive bool
}

// ProjectResult describes a finished project install.
type ProjectResult struct {
	Destination string
	Languages   languages.Selection
	Backup      backup.Record
	Installed   []string
}

// ProjectInstaller copies a filtered archive snapshot into the working directory.
type ProjectInstaller struct {
	fileSystem afero.Fs
	fetcher    fetch.Fetcher
	history    history.Recorder
	console    *console.Console
	deleter    *safety.Deleter
	backups    *backup.Manager
	source     config.Source
	project    config.Project
	env        environment.Env
}

// NewProjectInstaller creates a ProjectInstaller. A nil filesystem means the
// OS filesystem and a nil recorder disables history.
func NewProjectInstaller(
	env environment.Env,
	fileSystem afero.Fs,
	cfg *config.Config,
	fetcher fetch.Fetcher,
	out *console.Console,
	recorder history.Recorder,
) *ProjectInstaller {
	if out == nil {
		out = console.New(nil)
	}
	return &ProjectInstaller{
		fileSystem: fileSystem,
		fetcher:    fetcher,
		history:    recorder,
		console:    out,
		deleter:    safety.NewDeleter(env, fileSystem),
		backups:    backup.NewManager(fileSystem, env.Time, out),
		source:     cfg.Source,
		project:    cfg.Project,
		env:        env,
	}
}

func (p *ProjectInstaller) getFileSystem() afero.Fs {
	if p.fileSystem != nil {
		return p.fileSystem
	}
	return afero.NewOsFs()
}

// Install runs the project-local installation into the working directory.
func (p *ProjectInstaller) Install(ctx context.Context, opts ProjectOptions) (result *ProjectResult, err error) {
	if err := safety.RefuseRoot(p.env); err != nil {
		return nil, err
	}

	dest := p.env.WorkDir
	if err := safety.ValidateInstallTarget(p.env, dest); err != nil {
		return nil, err
	}

	logger := logging.Get(ctx)
	result = &ProjectResult{Destination: dest}

	run := startRun(ctx, p.history, history.ModeProject, dest)
	defer func() {
		if run != nil {
			run.Languages = result.Languages.Names()
			run.BackupDir = result.Backup.Dir
		}
		finishRun(ctx, p.history, run, err)
	}()

	bundleRoot, cleanup, err := p.fetchBundle(ctx)
	if err != nil {
		return result, err
	}
	defer func() {
		err = cleanup(err)
	}()

	if err := interrupted(ctx); err != nil {
		return result, err
	}

	sel, err := p.resolveSelection(ctx, bundleRoot, opts)
	if err != nil {
		return result, err
	}
	result.Languages = sel
	p.console.Info("Installing Claude Code configuration for: %s", sel)

	fileSystem := p.getFileSystem()
	if err := languages.Validate(fileSystem, bundleRoot, sel); err != nil {
		return result, err
	}

	if err := interrupted(ctx); err != nil {
		return result, err
	}

	p.console.Info("Cleaning up instructions, only keeping languages: %s", sel)
	if err := languages.NewFilter(fileSystem, p.deleter).Apply(ctx, bundleRoot, sel); err != nil {
		return result, err
	}

	if err := p.removePackagingFiles(ctx, bundleRoot); err != nil {
		return result, err
	}

	items, err := topLevelNames(fileSystem, bundleRoot)
	if err != nil {
		return result, err
	}

	if err := interrupted(ctx); err != nil {
		return result, err
	}

	record, err := p.backups.BackupConflicts(ctx, dest, items)
	result.Backup = record
	if err != nil {
		return result, err
	}

	p.console.Info("Moving final instructions to %s...", dest)
	for _, name := range items {
		if err := interrupted(ctx); err != nil {
			return result, err
		}
		if err := copyItem(fileSystem, filepath.Join(bundleRoot, name), filepath.Join(dest, name)); err != nil {
			return result, err
		}
		result.Installed = append(result.Installed, name)
	}

	logger.Info().
		Str("destination", dest).
		Strs("languages", sel.Names()).
		Strs("items", result.Installed).
		Str("backup_dir", record.Dir).
		Msg("Project install complete")
	p.console.Info("✓ Installation complete")
	return result, nil
}

// AvailableLanguages fetches the bundle and lists its languages.
func (p *ProjectInstaller) AvailableLanguages(ctx context.Context) (names []string, err error) {
	if err := safety.RefuseRoot(p.env); err != nil {
		return nil, err
	}

	bundleRoot, cleanup, err := p.fetchBundle(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = cleanup(err)
	}()

	return languages.Available(p.getFileSystem(), bundleRoot)
}

// fetchBundle downloads and extracts the snapshot into a new scratch
// directory. The returned cleanup removes the scratch directory through the
// deletion checks and joins any failure with the run error.
func (p *ProjectInstaller) fetchBundle(ctx context.Context) (string, func(error) error, error) {
	fileSystem := p.getFileSystem()
	logger := logging.Get(ctx)

	scratch, err := afero.TempDir(fileSystem, "", constants.ScratchPrefix)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	logger.Debug().Str("scratch", scratch).Msg("Created scratch directory")

	cleanup := func(runErr error) error {
		if err := p.deleter.Delete(ctx, scratch, true); err != nil {
			logger.Error().Err(err).Str("scratch", scratch).Msg("Failed to remove scratch directory")
			return errors.Join(runErr, fmt.Errorf("failed to clean up scratch directory: %w", err))
		}
		return runErr
	}

	p.console.Info("Downloading repository...")
	extracted, err := p.fetcher.FetchAndExtract(ctx, p.source.ArchiveURL, scratch)
	if err != nil {
		return "", nil, cleanup(fmt.Errorf("failed to fetch bundle: %w", err))
	}

	bundleRoot := filepath.Join(extracted, filepath.FromSlash(p.source.ArchiveRoot), filepath.FromSlash(p.project.Subdir))
	kind, err := safety.Inspect(fileSystem, bundleRoot)
	if err != nil {
		return "", nil, cleanup(err)
	}
	if kind != safety.EntryDirectory {
		return "", nil, cleanup(fmt.Errorf("%w: project setup folder %s", ErrMissingExpectedFile, bundleRoot))
	}

	return bundleRoot, cleanup, nil
}

func (p *ProjectInstaller) resolveSelection(
	ctx context.Context,
	bundleRoot string,
	opts ProjectOptions,
) (languages.Selection, error) {
	fileSystem := p.getFileSystem()

	switch {
	case opts.Interactive:
		if opts.Prompter == nil {
			return languages.Selection{}, ErrNoPrompter
		}
		if len(opts.Languages) > 0 {
			p.console.Warn("Ignoring language arguments in interactive mode")
		}
		p.console.Info("Fetching available languages...")
		available, err := languages.Available(fileSystem, bundleRoot)
		if err != nil {
			return languages.Selection{}, err
		}
		return prompt.ChooseLanguages(ctx, opts.Prompter, p.console, available)
	case len(opts.Languages) > 0:
		sel := languages.NewSelection(opts.Languages...)
		if sel.Empty() {
			return sel, languages.ErrEmptySelection
		}
		return sel, nil
	default:
		p.console.Info("No languages specified, installing all available languages...")
		available, err := languages.Available(fileSystem, bundleRoot)
		if err != nil {
			return languages.Selection{}, err
		}
		logging.Get(ctx).Debug().Strs("languages", available).Msg("Selected all languages")
		sel := languages.NewSelection(available...)
		if sel.Empty() {
			return sel, languages.ErrEmptySelection
		}
		return sel, nil
	}
}

func (p *ProjectInstaller) removePackagingFiles(ctx context.Context, bundleRoot string) error {
	fileSystem := p.getFileSystem()
	for _, name := range p.project.PackagingFiles {
		path := filepath.Join(bundleRoot, name)
		kind, err := safety.Inspect(fileSystem, path)
		if err != nil {
			return err
		}
		if kind == safety.EntryAbsent {
			continue
		}
		if err := p.deleter.Delete(ctx, path, false); err != nil {
			return fmt.Errorf("failed to remove packaging file %s: %w", name, err)
		}
	}
	return nil
}

func topLevelNames(fileSystem afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fileSystem, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundle %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

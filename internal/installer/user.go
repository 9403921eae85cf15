package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/a-gn/claude-setup/internal/backup"
	"github.com/a-gn/claude-setup/internal/config"
	"github.com/a-gn/claude-setup/internal/console"
	"github.com/a-gn/claude-setup/internal/constants"
	"github.com/a-gn/claude-setup/internal/environment"
	"github.com/a-gn/claude-setup/internal/fetch"
	"github.com/a-gn/claude-setup/internal/history"
	"github.com/a-gn/claude-setup/internal/logging"
	"github.com/a-gn/claude-setup/internal/safety"
	"github.com/spf13/afero"
)

// UserResult describes a finished user install.
type UserResult struct {
	Destination string
	CloneDir    string
	Backup      backup.Record
	Links       []string
}

// UserInstaller replaces ~/.claude with a clone of the repository and
// symlinks into it.
type UserInstaller struct {
	fileSystem afero.Fs
	cloner     fetch.Cloner
	history    history.Recorder
	console    *console.Console
	backups    *backup.Manager
	source     config.Source
	user       config.User
	env        environment.Env
}

// NewUserInstaller creates a UserInstaller. A nil filesystem means the OS
// filesystem and a nil recorder disables history.
func NewUserInstaller(
	env environment.Env,
	fileSystem afero.Fs,
	cfg *config.Config,
	cloner fetch.Cloner,
	out *console.Console,
	recorder history.Recorder,
) *UserInstaller {
	if out == nil {
		out = console.New(nil)
	}
	return &UserInstaller{
		fileSystem: fileSystem,
		cloner:     cloner,
		history:    recorder,
		console:    out,
		backups:    backup.NewManager(fileSystem, env.Time, out),
		source:     cfg.Source,
		user:       cfg.User,
		env:        env,
	}
}

func (u *UserInstaller) getFileSystem() afero.Fs {
	if u.fileSystem != nil {
		return u.fileSystem
	}
	return afero.NewOsFs()
}

// Destination is the user configuration directory.
func (u *UserInstaller) Destination() string {
	return filepath.Join(u.env.HomeDir, constants.ClaudeDir)
}

// Install moves any existing ~/.claude aside, clones the repository into a
// fresh ~/.claude and links the user setup files.
func (u *UserInstaller) Install(ctx context.Context) (result *UserResult, err error) {
	if err := safety.RefuseRoot(u.env); err != nil {
		return nil, err
	}

	dest := u.Destination()
	u.console.Info("Installing user-wide Claude Code configuration...")
	u.console.Info("Installing to: %s", dest)

	if err := safety.ValidateUserTarget(u.env, dest); err != nil {
		return nil, err
	}

	result = &UserResult{Destination: dest}
	run := startRun(ctx, u.history, history.ModeUser, dest)
	defer func() {
		if run != nil {
			run.BackupDir = result.Backup.Dir
		}
		finishRun(ctx, u.history, run, err)
	}()

	if err := interrupted(ctx); err != nil {
		return result, err
	}

	record, err := u.backups.BackupDirectory(ctx, dest)
	result.Backup = record
	if err != nil {
		return result, err
	}

	fileSystem := u.getFileSystem()
	if err := fileSystem.Mkdir(dest, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return result, fmt.Errorf("%w: %s", ErrDestinationNotVacated, dest)
		}
		return result, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	u.console.Info("Installing via git clone with symlinks...")
	cloneDir := filepath.Join(dest, constants.CloneDirName)
	if err := u.cloner.Clone(ctx, u.source.RepositoryURL, cloneDir); err != nil {
		return result, fmt.Errorf("failed to clone %s: %w", u.source.RepositoryURL, err)
	}
	result.CloneDir = cloneDir

	if err := interrupted(ctx); err != nil {
		return result, err
	}

	links, err := u.linkSetup(ctx, dest, cloneDir)
	result.Links = links
	if err != nil {
		return result, err
	}

	logging.Get(ctx).Info().
		Str("destination", dest).
		Str("clone", cloneDir).
		Strs("links", links).
		Str("backup_dir", record.Dir).
		Msg("User install complete")

	u.console.Info("✓ Installation complete")
	u.console.Info("To update: cd %s && git pull", cloneDir)
	u.console.Info("Configuration directory: %s", dest)
	return result, nil
}

// linkSetup creates dest/CLAUDE.md and, when the clone has one, dest/commands.
func (u *UserInstaller) linkSetup(ctx context.Context, dest, cloneDir string) ([]string, error) {
	fileSystem := u.getFileSystem()
	setupDir := filepath.Join(cloneDir, filepath.FromSlash(u.user.Subdir))

	kind, err := safety.Inspect(fileSystem, setupDir)
	if err != nil {
		return nil, err
	}
	if kind != safety.EntryDirectory {
		return nil, fmt.Errorf("%w: user setup directory %s", ErrMissingExpectedFile, setupDir)
	}

	manifest := filepath.Join(setupDir, constants.ManifestFilename)
	if exists, err := afero.Exists(fileSystem, manifest); err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", manifest, err)
	} else if !exists {
		return nil, fmt.Errorf("%w: %s", ErrMissingExpectedFile, manifest)
	}

	var links []string
	link := filepath.Join(dest, constants.ManifestFilename)
	if err := symlink(fileSystem, manifest, link); err != nil {
		return links, err
	}
	links = append(links, link)

	commands := filepath.Join(setupDir, constants.CommandsDirName)
	if exists, err := afero.DirExists(fileSystem, commands); err != nil {
		return links, fmt.Errorf("failed to check %s: %w", commands, err)
	} else if exists {
		link := filepath.Join(dest, constants.CommandsDirName)
		if err := symlink(fileSystem, commands, link); err != nil {
			return links, err
		}
		links = append(links, link)
	}

	logging.Get(ctx).Debug().Strs("links", links).Msg("Linked user setup")
	return links, nil
}

func symlink(fileSystem afero.Fs, target, link string) error {
	linker, ok := fileSystem.(afero.Linker)
	if !ok {
		return fmt.Errorf("failed to link %s: %w", link, afero.ErrNoSymlink)
	}
	if err := linker.SymlinkIfPossible(target, link); err != nil {
		return fmt.Errorf("failed to link %s to %s: %w", link, target, err)
	}
	return nil
}

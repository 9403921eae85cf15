package safety

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/a-gn/claude-setup/internal/environment"
	"github.com/a-gn/claude-setup/internal/logging"
	"github.com/spf13/afero"
)

// Deleter removes scratch files and directories, refusing anything outside
// the configured temporary roots.
type Deleter struct {
	fileSystem afero.Fs
	env        environment.Env
}

// NewDeleter creates a Deleter. A nil filesystem means the OS filesystem.
func NewDeleter(env environment.Env, fileSystem afero.Fs) *Deleter {
	return &Deleter{env: env, fileSystem: fileSystem}
}

func (d *Deleter) getFileSystem() afero.Fs {
	if d.fileSystem != nil {
		return d.fileSystem
	}
	return afero.NewOsFs()
}

// Check validates that path may be deleted and returns its resolved form.
func (d *Deleter) Check(path string) (string, error) {
	if d.env.IsRoot() {
		return "", fmt.Errorf("%w: %w", ErrUnsafeDeletion, ErrRunningAsRoot)
	}

	resolved, err := ResolveEntry(d.env.WorkDir, path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s for deletion: %w", path, err)
	}

	if n := Components(resolved); n <= 1 {
		return "", fmt.Errorf("%w: path too short for deletion (only %d components): %s",
			ErrUnsafeDeletion, n, resolved)
	}

	for _, root := range d.env.TempRoots {
		resolvedRoot, err := Resolve(d.env.WorkDir, root)
		if err != nil {
			continue
		}
		if IsStrictlyWithin(resolvedRoot, resolved) {
			return resolved, nil
		}
	}

	return "", fmt.Errorf("%w: %q is not inside a temporary directory", ErrUnsafeDeletion, resolved)
}

// Delete removes path after Check passes. Directories are only removed when
// allowDirectory is set.
func (d *Deleter) Delete(ctx context.Context, path string, allowDirectory bool) error {
	resolved, err := d.Check(path)
	if err != nil {
		return err
	}

	fileSystem := d.getFileSystem()
	kind, err := Inspect(fileSystem, resolved)
	if err != nil {
		return err
	}

	logging.Get(ctx).Debug().
		Str("path", resolved).
		Stringer("kind", kind).
		Bool("allow_directory", allowDirectory).
		Msg("Deleting scratch entry")

	switch kind {
	case EntryDirectory:
		if !allowDirectory {
			return fmt.Errorf("%w: %s", ErrUnexpectedDirectory, resolved)
		}
		if err := fileSystem.RemoveAll(resolved); err != nil {
			return fmt.Errorf("failed to remove directory %s: %w", resolved, err)
		}
		return nil
	case EntryFile, EntrySymlink:
		if err := fileSystem.Remove(resolved); err != nil {
			return fmt.Errorf("failed to remove %s: %w", resolved, err)
		}
		return nil
	case EntryAbsent:
		return fmt.Errorf("%w: %s: %w", ErrNotFound, resolved, fs.ErrNotExist)
	case EntryOther:
		return fmt.Errorf("%w: %s exists but is not a file, directory or symlink; refusing to delete",
			ErrUnknownEntryKind, resolved)
	default:
		return fmt.Errorf("%w: %s has kind %s", ErrUnknownEntryKind, resolved, kind)
	}
}

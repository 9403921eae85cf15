package installer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/a-gn/claude-setup/internal/safety"
	"github.com/spf13/afero"
)

// copyItem copies src to dst. A directory replaces any existing dst whole;
// a file overwrites dst and keeps its mode and modification time.
func copyItem(fileSystem afero.Fs, src, dst string) error {
	kind, err := safety.Inspect(fileSystem, src)
	if err != nil {
		return err
	}

	switch kind {
	case safety.EntryDirectory:
		if err := fileSystem.RemoveAll(dst); err != nil {
			return fmt.Errorf("failed to remove existing %s: %w", dst, err)
		}
		return copyTree(fileSystem, src, dst)
	case safety.EntryFile:
		return copyFile(fileSystem, src, dst)
	case safety.EntrySymlink:
		return copySymlink(fileSystem, src, dst)
	case safety.EntryAbsent:
		return fmt.Errorf("failed to copy %s: %w", src, os.ErrNotExist)
	case safety.EntryOther:
		return fmt.Errorf("failed to copy %s: %w", src, safety.ErrUnknownEntryKind)
	default:
		return fmt.Errorf("failed to copy %s: %w: %s", src, safety.ErrUnknownEntryKind, kind)
	}
}

func copyTree(fileSystem afero.Fs, src, dst string) error {
	err := afero.Walk(fileSystem, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err //nolint:wrapcheck // wrapped below
		}
		target := filepath.Join(dst, rel)

		switch safety.KindOf(info.Mode()) {
		case safety.EntryDirectory:
			return fileSystem.MkdirAll(target, info.Mode().Perm()|0o700)
		case safety.EntrySymlink:
			return copySymlink(fileSystem, path, target)
		case safety.EntryFile:
			return copyFile(fileSystem, path, target)
		default:
			return fmt.Errorf("%w: %s", safety.ErrUnknownEntryKind, path)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}

func copyFile(fileSystem afero.Fs, src, dst string) error {
	info, err := fileSystem.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	in, err := fileSystem.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := fileSystem.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	if err := fileSystem.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", dst, err)
	}
	if err := fileSystem.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set times on %s: %w", dst, err)
	}
	return nil
}

func copySymlink(fileSystem afero.Fs, src, dst string) error {
	reader, ok := fileSystem.(afero.LinkReader)
	if !ok {
		return fmt.Errorf("failed to read link %s: %w", src, afero.ErrNoReadlink)
	}
	linker, ok := fileSystem.(afero.Linker)
	if !ok {
		return fmt.Errorf("failed to copy link %s: %w", src, afero.ErrNoSymlink)
	}

	target, err := reader.ReadlinkIfPossible(src)
	if err != nil {
		return fmt.Errorf("failed to read link %s: %w", src, err)
	}
	if err := linker.SymlinkIfPossible(target, dst); err != nil {
		return fmt.Errorf("failed to create link %s: %w", dst, err)
	}
	return nil
}

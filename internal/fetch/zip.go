package fetch

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ExtractZip extracts the archive at archivePath into destDir. Entries that
// would land outside destDir, symlinks pointing outside it and entries written
// at or below a symlink extracted earlier are rejected. File modes and
// modification times are preserved.
func ExtractZip(fileSystem afero.Fs, archivePath, destDir string) error {
	archive, err := fileSystem.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() { _ = archive.Close() }()

	info, err := archive.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}

	reader, err := zip.NewReader(archive, info.Size())
	if errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("%w: %s: %w", ErrUnsafeArchiveEntry, archivePath, err)
	}
	if err != nil {
		return fmt.Errorf("failed to read zip archive %s: %w", archivePath, err)
	}

	for _, entry := range reader.File {
		target, err := entryPath(destDir, entry.Name)
		if err != nil {
			return err
		}
		if err := rejectLinkedPath(fileSystem, destDir, target, entry.Name); err != nil {
			return err
		}

		mode := entry.Mode()
		switch {
		case mode.IsDir():
			err = fileSystem.MkdirAll(target, dirMode(mode))
		case mode&os.ModeSymlink != 0:
			err = extractSymlink(fileSystem, entry, destDir, target)
		default:
			err = extractFile(fileSystem, entry, target)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func entryPath(destDir, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchiveEntry, name)
	}
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !within(destDir, target) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchiveEntry, name)
	}
	return target, nil
}

// rejectLinkedPath fails when any element of target below destDir is a
// symlink. A link that is lexically inside destDir can still resolve outside
// it once it is combined with other links.
func rejectLinkedPath(fileSystem afero.Fs, destDir, target, name string) error {
	lstater, ok := fileSystem.(afero.Lstater)
	if !ok {
		return nil
	}

	rel, err := filepath.Rel(destDir, target)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsafeArchiveEntry, name)
	}
	if rel == "." {
		return nil
	}

	current := destDir
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		info, _, err := lstater.LstatIfPossible(current)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", current, err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s goes through symlink %s", ErrUnsafeArchiveEntry, name, current)
		}
	}
	return nil
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func dirMode(mode os.FileMode) os.FileMode {
	if perm := mode.Perm(); perm != 0 {
		return perm | 0o700
	}
	return 0o755
}

func extractFile(fileSystem afero.Fs, entry *zip.File, target string) error {
	if err := fileSystem.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", entry.Name, err)
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
	}
	defer func() { _ = src.Close() }()

	perm := entry.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}

	dst, err := fileSystem.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	_, err = io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
	}

	if err := fileSystem.Chmod(target, perm); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", target, err)
	}
	if modified := entry.Modified; !modified.IsZero() {
		if err := fileSystem.Chtimes(target, modified, modified); err != nil {
			return fmt.Errorf("failed to set times on %s: %w", target, err)
		}
	}
	return nil
}

func extractSymlink(fileSystem afero.Fs, entry *zip.File, destDir, target string) error {
	linker, ok := fileSystem.(afero.Linker)
	if !ok {
		return fmt.Errorf("failed to extract symlink %s: %w", entry.Name, afero.ErrNoSymlink)
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
	}
	defer func() { _ = src.Close() }()

	raw, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("failed to read symlink %s: %w", entry.Name, err)
	}

	link := filepath.FromSlash(string(raw))
	resolved := link
	if !filepath.IsAbs(link) {
		resolved = filepath.Join(filepath.Dir(target), link)
	}
	if filepath.IsAbs(link) || !within(destDir, resolved) {
		return fmt.Errorf("%w: %s -> %s", ErrUnsafeArchiveEntry, entry.Name, link)
	}

	if err := fileSystem.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", entry.Name, err)
	}
	if err := linker.SymlinkIfPossible(link, target); err != nil {
		return fmt.Errorf("failed to create symlink %s: %w", target, err)
	}
	return nil
}

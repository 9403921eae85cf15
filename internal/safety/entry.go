package safety

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

// EntryKind classifies what exists at a path without following a final symlink.
type EntryKind int

const (
	EntryAbsent EntryKind = iota
	EntryFile
	EntryDirectory
	EntrySymlink
	EntryOther
)

func (k EntryKind) String() string {
	switch k {
	case EntryAbsent:
		return "absent"
	case EntryFile:
		return "file"
	case EntryDirectory:
		return "directory"
	case EntrySymlink:
		return "symlink"
	case EntryOther:
		return "other"
	default:
		return fmt.Sprintf("EntryKind(%d)", int(k))
	}
}

// Inspect reports the kind of entry at path. Filesystems that cannot lstat
// fall back to stat, in which case symlinks are reported as their targets.
func Inspect(fileSystem afero.Fs, path string) (EntryKind, error) {
	info, err := lstat(fileSystem, path)
	if errors.Is(err, fs.ErrNotExist) {
		return EntryAbsent, nil
	}
	if err != nil {
		return EntryAbsent, fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	return KindOf(info.Mode()), nil
}

// KindOf maps a file mode to an EntryKind.
func KindOf(mode os.FileMode) EntryKind {
	switch {
	case mode&os.ModeSymlink != 0:
		return EntrySymlink
	case mode.IsDir():
		return EntryDirectory
	case mode.IsRegular():
		return EntryFile
	default:
		return EntryOther
	}
}

func lstat(fileSystem afero.Fs, path string) (os.FileInfo, error) {
	if lstater, ok := fileSystem.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err //nolint:wrapcheck // wrapped by Inspect
	}
	return fileSystem.Stat(path) //nolint:wrapcheck // wrapped by Inspect
}

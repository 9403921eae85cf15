// Package backup moves existing configuration aside before an install
// overwrites it, and prints how to put it back.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"time"

	"github.com/a-gn/claude-setup/internal/console"
	"github.com/a-gn/claude-setup/internal/constants"
	"github.com/a-gn/claude-setup/internal/logging"
	"github.com/a-gn/claude-setup/internal/safety"
	"github.com/spf13/afero"
)

// maxSuffix bounds the search for a free backup name within one second.
const maxSuffix = 100

var ErrNoFreeBackupName = errors.New("no free backup directory name")

// Manager creates backup directories. Backups are never deleted by the program.
type Manager struct {
	fileSystem afero.Fs
	now        func() time.Time
	console    *console.Console
}

// NewManager creates a Manager. A nil filesystem means the OS filesystem and a
// nil clock means time.Now.
func NewManager(fileSystem afero.Fs, now func() time.Time, out *console.Console) *Manager {
	if now == nil {
		now = time.Now
	}
	if out == nil {
		out = console.New(nil)
	}
	return &Manager{fileSystem: fileSystem, now: now, console: out}
}

func (m *Manager) getFileSystem() afero.Fs {
	if m.fileSystem != nil {
		return m.fileSystem
	}
	return afero.NewOsFs()
}

// BackupConflicts moves every entry of destDir whose name is in names into a
// new timestamped backup directory inside destDir. Nothing is touched and an
// empty Record is returned when no name collides.
func (m *Manager) BackupConflicts(ctx context.Context, destDir string, names []string) (Record, error) {
	fileSystem := m.getFileSystem()

	var conflicts []string
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		kind, err := safety.Inspect(fileSystem, filepath.Join(destDir, name))
		if err != nil {
			return Record{}, err
		}
		if kind != safety.EntryAbsent {
			conflicts = append(conflicts, name)
		}
	}

	if len(conflicts) == 0 {
		return Record{Kind: KindConflicts, Source: destDir}, nil
	}

	backupDir, err := m.makeBackupDir(destDir, constants.ProjectBackupPrefix)
	if err != nil {
		return Record{}, err
	}

	record := Record{Kind: KindConflicts, Source: destDir, Dir: backupDir}
	logger := logging.Get(ctx)
	for _, name := range conflicts {
		from := filepath.Join(destDir, name)
		to := filepath.Join(backupDir, name)
		if err := fileSystem.Rename(from, to); err != nil {
			return record, fmt.Errorf("failed to back up %s to %s: %w", from, to, err)
		}
		record.Items = append(record.Items, name)
		logger.Debug().Str("from", from).Str("to", to).Msg("Backed up conflicting item")
	}

	logger.Info().Str("backup_dir", backupDir).Strs("items", record.Items).Msg("Backed up conflicting items")
	m.report(record)
	return record, nil
}

// BackupDirectory moves dir as a whole to a timestamped sibling. A missing dir
// yields an empty Record.
func (m *Manager) BackupDirectory(ctx context.Context, dir string) (Record, error) {
	fileSystem := m.getFileSystem()
	dir = filepath.Clean(dir)

	kind, err := safety.Inspect(fileSystem, dir)
	if err != nil {
		return Record{}, err
	}
	if kind == safety.EntryAbsent {
		return Record{Kind: KindDirectory, Source: dir}, nil
	}

	backupDir, err := m.freeName(filepath.Dir(dir), constants.UserBackupPrefix)
	if err != nil {
		return Record{}, err
	}

	if err := fileSystem.Rename(dir, backupDir); err != nil {
		return Record{}, fmt.Errorf("failed to back up %s to %s: %w", dir, backupDir, err)
	}

	record := Record{Kind: KindDirectory, Source: dir, Dir: backupDir, Items: []string{filepath.Base(dir)}}
	logging.Get(ctx).Info().Str("from", dir).Str("backup_dir", backupDir).Msg("Backed up configuration directory")
	m.report(record)
	return record, nil
}

func (m *Manager) report(record Record) {
	m.console.Info("Backed up existing config to: %s", record.Dir)
	m.console.Blank()
	m.console.Info("To rollback this installation, run:")
	for _, line := range record.RollbackRecipe() {
		m.console.Info("  %s", line)
	}
	m.console.Blank()
}

// makeBackupDir creates a new, previously unused backup directory in parent.
func (m *Manager) makeBackupDir(parent, prefix string) (string, error) {
	fileSystem := m.getFileSystem()
	base := filepath.Join(parent, backupName(prefix, m.now()))

	for i := 1; i <= maxSuffix; i++ {
		candidate := withSuffix(base, i)
		err := fileSystem.Mkdir(candidate, 0o755)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("failed to create backup directory %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoFreeBackupName, base)
}

// freeName finds an unused backup path in parent without creating it.
func (m *Manager) freeName(parent, prefix string) (string, error) {
	fileSystem := m.getFileSystem()
	base := filepath.Join(parent, backupName(prefix, m.now()))

	for i := 1; i <= maxSuffix; i++ {
		candidate := withSuffix(base, i)
		kind, err := safety.Inspect(fileSystem, candidate)
		if err != nil {
			return "", err
		}
		if kind == safety.EntryAbsent {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoFreeBackupName, base)
}

func backupName(prefix string, now time.Time) string {
	return prefix + "_" + now.Format(constants.BackupTimestampLayout)
}

func withSuffix(base string, i int) string {
	if i == 1 {
		return base
	}
	return base + "_" + strconv.Itoa(i)
}

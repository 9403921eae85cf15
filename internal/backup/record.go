package backup

import (
	"path/filepath"
	"strings"

	"github.com/a-gn/claude-setup/internal/constants"
)

// Kind tells how a backup was made.
type Kind int

const (
	// KindConflicts holds individual items moved out of a project directory.
	KindConflicts Kind = iota
	// KindDirectory holds a whole configuration directory moved to a sibling.
	KindDirectory
)

// Record describes one backup. Dir is empty when nothing was backed up.
type Record struct {
	Source string
	Dir    string
	Items  []string
	Kind   Kind
}

// Empty reports whether nothing was moved.
func (r Record) Empty() bool {
	return r.Dir == ""
}

// RollbackRecipe returns shell lines that undo the install and restore the
// backup. It is printed for the user and never executed. Paths are quoted
// when the shell would otherwise split or expand them.
func (r Record) RollbackRecipe() []string {
	if r.Empty() {
		return nil
	}

	stamp := "$(date +%Y%m%d_%H%M%S)"

	if r.Kind == KindDirectory {
		rollback := shellQuote(filepath.Dir(r.Source)) + "/" + constants.RollbackBackupPrefix + "_" + stamp
		return []string{
			"# Backup current config",
			"mv " + shellQuote(r.Source) + " " + rollback,
			"# Restore previous config",
			"mv " + shellQuote(r.Dir) + " " + shellQuote(r.Source),
		}
	}

	lines := []string{
		"cd " + shellQuote(r.Source),
		"# Backup current config",
		"rollback=" + constants.RollbackBackupPrefix + "_" + stamp,
		`mkdir -p "$rollback"`,
	}
	for _, item := range r.Items {
		lines = append(lines, "mv "+shellQuote(item)+` "$rollback"/`)
	}
	lines = append(lines, "# Restore previous config")
	for _, item := range r.Items {
		lines = append(lines, "mv "+shellQuote(filepath.Join(r.Dir, item))+" ./")
	}
	return append(lines, "rmdir "+shellQuote(r.Dir))
}

// shellQuote wraps s in single quotes unless it only holds characters the
// shell passes through unchanged.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, needsQuoting) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuoting(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("_-./+,:=@%", r)
}

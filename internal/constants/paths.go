// Package constants contains names of the directories and files claude-setup reads and writes.
package constants

const (
	// AppName is used for XDG directory paths.
	AppName = "claude-setup"

	// ClaudeDir is the Claude configuration directory name (.claude).
	ClaudeDir = ".claude"

	// ManifestFilename is the instruction manifest placed at the top of a bundle.
	ManifestFilename = "CLAUDE.md"

	// CommandsDirName is the optional slash-command folder of the user bundle.
	CommandsDirName = "commands"

	// CloneDirName is where the user installer clones the repository inside ~/.claude.
	CloneDirName = "instructions_repository_clone"

	// LogFilename is the default log file name.
	LogFilename = "claude-setup.log"

	// DatabaseFilename is the install history database file name.
	DatabaseFilename = "history.db"

	// ConfigFilename is the default configuration file name.
	ConfigFilename = "config.yml"
)

// Backup naming
const (
	// ProjectBackupPrefix prefixes backup directories created inside a project.
	ProjectBackupPrefix = ".claude_backup"

	// UserBackupPrefix prefixes the sibling backup of ~/.claude.
	UserBackupPrefix = ".claude_backup"

	// RollbackBackupPrefix is used by the printed rollback recipe.
	RollbackBackupPrefix = ".claude_rollback_backup"

	// BackupTimestampLayout renders as YYYYMMDD_HHMMSS.
	BackupTimestampLayout = "20060102_150405"
)

package constants

const (
	// LanguagesDir is the bundle-relative folder holding one subdirectory per language.
	LanguagesDir = "agent_instructions/languages"

	// LanguageMarker precedes a language name in manifest include lines.
	LanguageMarker = "@agent_instructions/languages/"

	// ScratchPrefix names the per-run temporary directory.
	ScratchPrefix = "claude_install_"

	// ArchiveFilename is the downloaded snapshot inside the scratch directory.
	ArchiveFilename = "repo.zip"

	// ExtractDirName receives the extracted snapshot inside the scratch directory.
	ExtractDirName = "extract"
)

// DefaultPackagingFiles are bundle files that exist only to distribute the bundle.
var DefaultPackagingFiles = []string{"README.md", "install.sh", "install.py"}

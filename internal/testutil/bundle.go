package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"path"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

// BundleManifest is the CLAUDE.md written by WriteProjectBundle.
const BundleManifest = `# Agent instructions
Always read the relevant files.
@agent_instructions/languages/python/style.md
@agent_instructions/languages/go/style.md
@agent_instructions/languages/rust/style.md
`

// ProjectBundleFiles returns the files of a project setup bundle with the
// given languages, keyed by slash-separated path relative to the bundle root.
// Packaging files are included so installs can be checked to drop them.
func ProjectBundleFiles(langs ...string) map[string]string {
	files := map[string]string{
		"CLAUDE.md":                         BundleManifest,
		"README.md":                         "packaging readme",
		"install.sh":                        "#!/bin/sh\n",
		"install.py":                        "print('install')\n",
		"agent_instructions/general.md":     "general rules",
		".claude/commands/review.md":        "review command",
		"agent_instructions/tooling/git.md": "git rules",
	}
	for _, lang := range langs {
		files["agent_instructions/languages/"+lang+"/style.md"] = lang + " style"
	}
	return files
}

// WriteFiles writes files below root, creating directories as needed.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		target := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

// ZipArchive builds a zip archive holding files under prefix, with explicit
// directory entries the way source host snapshots are laid out.
func ZipArchive(t *testing.T, prefix string, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	modified := time.Date(2025, 9, 14, 12, 0, 0, 0, time.UTC)

	dirs := map[string]struct{}{}
	addDir := func(dir string) {
		if _, ok := dirs[dir]; ok || dir == "." || dir == "" {
			return
		}
		dirs[dir] = struct{}{}
		header := &zip.FileHeader{Name: dir + "/", Modified: modified}
		header.SetMode(os.ModeDir | 0o755)
		if _, err := writer.CreateHeader(header); err != nil {
			t.Fatalf("Failed to add directory %s: %v", dir, err)
		}
	}

	if prefix != "" {
		addDir(prefix)
	}
	for _, name := range names {
		full := path.Join(prefix, name)
		var parents []string
		for dir := path.Dir(full); dir != "." && dir != "/"; dir = path.Dir(dir) {
			parents = append([]string{dir}, parents...)
		}
		for _, dir := range parents {
			addDir(dir)
		}

		header := &zip.FileHeader{Name: full, Method: zip.Deflate, Modified: modified}
		header.SetMode(0o644)
		entry, err := writer.CreateHeader(header)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", full, err)
		}
		if _, err := entry.Write([]byte(files[name])); err != nil {
			t.Fatalf("Failed to write %s: %v", full, err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to finish archive: %v", err)
	}
	return buf.Bytes()
}

package installer

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/a-gn/claude-setup/internal/config"
	"github.com/a-gn/claude-setup/internal/console"
	"github.com/a-gn/claude-setup/internal/environment"
	"github.com/stretchr/testify/require"
)

const testArchiveRoot = "ai-tool-config-main"

// fakeFetcher extracts a synthetic bundle instead of downloading one.
type fakeFetcher struct {
	err      error
	onFetch  func()
	files    map[string]string
	scratch  []string
	calls    int
	noSubdir bool
}

func (f *fakeFetcher) FetchAndExtract(_ context.Context, _ string, destDir string) (string, error) {
	f.calls++
	f.scratch = append(f.scratch, destDir)
	if f.onFetch != nil {
		f.onFetch()
	}
	if f.err != nil {
		return "", f.err
	}

	extract := filepath.Join(destDir, "extract")
	bundle := filepath.Join(extract, testArchiveRoot, "claude", "project_setup")
	if f.noSubdir {
		bundle = filepath.Join(extract, testArchiveRoot, "elsewhere")
	}
	if err := os.MkdirAll(bundle, 0o755); err != nil {
		return "", err
	}
	for name, content := range f.files {
		target := filepath.Join(bundle, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return "", err
		}
	}
	return extract, nil
}

// fakeCloner writes a synthetic repository instead of running git.
type fakeCloner struct {
	err   error
	files map[string]string
	urls  []string
}

func (c *fakeCloner) Clone(_ context.Context, url, dest string) error {
	c.urls = append(c.urls, url)
	if c.err != nil {
		return c.err
	}
	for name, content := range c.files {
		target := filepath.Join(dest, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func userRepoFiles(withCommands bool) map[string]string {
	files := map[string]string{
		"README.md":                      "readme",
		"claude/user_setup/CLAUDE.md":    "user instructions",
		"claude/project_setup/CLAUDE.md": "project instructions",
	}
	if withCommands {
		files["claude/user_setup/commands/review.md"] = "review"
	}
	return files
}

type testSetup struct {
	env     environment.Env
	project string
	home    string
}

func newTestSetup(t *testing.T) testSetup {
	t.Helper()
	base := t.TempDir()
	project := filepath.Join(base, "project")
	home := filepath.Join(base, "home")
	require.NoError(t, os.Mkdir(project, 0o755))
	require.NoError(t, os.Mkdir(home, 0o755))

	current := time.Date(2025, 9, 14, 10, 30, 15, 0, time.UTC)
	clock := func() time.Time {
		now := current
		current = current.Add(time.Second)
		return now
	}

	return testSetup{
		project: project,
		home:    home,
		env: environment.Env{
			WorkDir:   project,
			HomeDir:   home,
			TempRoots: environment.DefaultTempRoots(),
			EUID:      1000,
			Now:       clock,
		},
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Source.ArchiveRoot = testArchiveRoot
	return cfg
}

func newTestConsole() (*console.Console, *bytes.Buffer) {
	var out bytes.Buffer
	return console.New(&out), &out
}

// snapshot maps every path below root to its content, skipping backup directories.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	result := map[string]string{}
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if strings.HasPrefix(rel, ".claude_backup") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			result[filepath.ToSlash(rel)+"/"] = ""
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		result[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	require.NoError(t, err)
	return result
}

func backupDirs(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".claude_backup") {
			names = append(names, entry.Name())
		}
	}
	return names
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func requireRemoved(t *testing.T, path string) {
	t.Helper()
	_, err := os.Lstat(path)
	require.True(t, errors.Is(err, fs.ErrNotExist), "expected %s to be removed, got %v", path, err)
}

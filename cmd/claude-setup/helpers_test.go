package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/a-gn/claude-setup/internal/app"
	"github.com/a-gn/claude-setup/internal/environment"
	"github.com/a-gn/claude-setup/internal/testutil"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// cliFixture is a sandboxed home, project and config for running commands.
type cliFixture struct {
	factory    *app.AppFactory
	project    string
	home       string
	configPath string
	dbPath     string
	logs       *bytes.Buffer
	env        environment.Env
}

func newCLIFixture(t *testing.T, archiveURL string) *cliFixture {
	t.Helper()
	base := t.TempDir()
	fixture := &cliFixture{
		project:    filepath.Join(base, "project"),
		home:       filepath.Join(base, "home"),
		configPath: filepath.Join(base, "config", "config.yml"),
		dbPath:     filepath.Join(base, "history.db"),
		logs:       &bytes.Buffer{},
	}
	require.NoError(t, os.MkdirAll(fixture.project, 0o755))
	require.NoError(t, os.MkdirAll(fixture.home, 0o755))

	if archiveURL != "" {
		require.NoError(t, os.MkdirAll(filepath.Dir(fixture.configPath), 0o755))
		cfg := "source:\n  archive_url: " + archiveURL + "\n  timeout: 10s\n"
		require.NoError(t, os.WriteFile(fixture.configPath, []byte(cfg), 0o600))
	}

	fixture.env = environment.Env{
		WorkDir:   fixture.project,
		HomeDir:   fixture.home,
		TempRoots: environment.DefaultTempRoots(),
		EUID:      1000,
		Now:       time.Now,
	}
	fixture.factory = app.NewAppFactory().
		WithFileSystem(afero.NewOsFs()).
		WithEnv(fixture.env).
		WithLogWriter(fixture.logs).
		WithDatabase(fixture.dbPath)
	return fixture
}

// asRoot makes later commands run with an effective user id of 0.
func (f *cliFixture) asRoot() {
	f.env.EUID = 0
	f.factory.WithEnv(f.env)
}

// execute runs the command line args and returns what it printed.
func (f *cliFixture) execute(t *testing.T, stdin *os.File, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := f.run(context.Background(), stdin, &out, args...)
	return out.String(), err
}

func (f *cliFixture) run(ctx context.Context, stdin *os.File, out io.Writer, args ...string) error {
	rootCmd := newRootCommand(f.factory)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	if stdin != nil {
		rootCmd.SetIn(stdin)
	}
	rootCmd.SetArgs(append([]string{"--config", f.configPath}, args...))

	return rootCmd.ExecuteContext(ctx)
}

// watchedWriter collects output and closes seen once marker has been written.
type watchedWriter struct {
	seen   chan struct{}
	marker string
	buf    bytes.Buffer
	mu     sync.Mutex
}

func newWatchedWriter(marker string) *watchedWriter {
	return &watchedWriter{marker: marker, seen: make(chan struct{})}
}

func (w *watchedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	alreadySeen := strings.Contains(w.buf.String(), w.marker)
	n, err := w.buf.Write(p)
	if !alreadySeen && strings.Contains(w.buf.String(), w.marker) {
		close(w.seen)
	}
	return n, err //nolint:wrapcheck // bytes.Buffer never fails
}

func (w *watchedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

// serveBundle serves a project bundle archive holding langs.
func serveBundle(t *testing.T, langs ...string) string {
	t.Helper()
	archive := testutil.ZipArchive(t, "ai-tool-config-main/claude/project_setup",
		testutil.ProjectBundleFiles(langs...))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	}))
	t.Cleanup(server.Close)
	return server.URL + "/archive.zip"
}

// answerFile returns an input file holding answer.
func answerFile(t *testing.T, answer string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stdin")
	require.NoError(t, os.WriteFile(path, []byte(answer), 0o600))
	file, err := os.Open(path) //nolint:gosec // test fixture path
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })
	return file
}

// fakeCloner writes a user setup tree instead of running git.
type fakeCloner struct {
	urls []string
}

func (c *fakeCloner) Clone(_ context.Context, url, dest string) error {
	c.urls = append(c.urls, url)
	files := map[string]string{
		"claude/user_setup/CLAUDE.md":          "user instructions",
		"claude/user_setup/commands/review.md": "review",
	}
	for name, content := range files {
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

func findCommand(t *testing.T, rootCmd *cobra.Command, path ...string) *cobra.Command {
	t.Helper()
	cmd, _, err := rootCmd.Find(path)
	require.NoError(t, err)
	require.NotNil(t, cmd)
	return cmd
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

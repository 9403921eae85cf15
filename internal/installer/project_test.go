package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/a-gn/claude-setup/internal/database"
	"github.com/a-gn/claude-setup/internal/history"
	"github.com/a-gn/claude-setup/internal/languages"
	"github.com/a-gn/claude-setup/internal/prompt"
	"github.com/a-gn/claude-setup/internal/safety"
	"github.com/a-gn/claude-setup/internal/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answerPrompter struct {
	err    error
	answer string
}

func (p answerPrompter) Prompt(string) (string, error) {
	return p.answer, p.err
}

func (answerPrompter) Close() error {
	return nil
}

func newProjectInstaller(t *testing.T, setup testSetup, fetcher *fakeFetcher, recorder history.Recorder) (*ProjectInstaller, func() string) {
	t.Helper()
	out, buf := newTestConsole()
	installer := NewProjectInstaller(setup.env, afero.NewOsFs(), testConfig(), fetcher, out, recorder)
	return installer, buf.String
}

func TestProjectInstall_EndToEnd(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	fetcher := &fakeFetcher{files: testutil.ProjectBundleFiles("python", "go", "rust")}
	installer, output := newProjectInstaller(t, setup, fetcher, nil)

	result, err := installer.Install(ctx, ProjectOptions{Languages: []string{"python", "go"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"python", "go"}, result.Languages.Names())
	assert.True(t, result.Backup.Empty())
	assert.Empty(t, backupDirs(t, setup.project))
	assert.Equal(t, []string{".claude", "CLAUDE.md", "agent_instructions"}, result.Installed)
	assert.ElementsMatch(t, []string{".claude", "CLAUDE.md", "agent_instructions"}, dirNames(t, setup.project))
	assert.ElementsMatch(t, []string{"python", "go"},
		dirNames(t, filepath.Join(setup.project, "agent_instructions", "languages")))

	manifest, err := os.ReadFile(filepath.Join(setup.project, "CLAUDE.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Agent instructions\n"+
		"Always read the relevant files.\n"+
		"@agent_instructions/languages/python/style.md\n"+
		"@agent_instructions/languages/go/style.md\n", string(manifest))

	assert.FileExists(t, filepath.Join(setup.project, ".claude", "commands", "review.md"))
	assert.NoFileExists(t, filepath.Join(setup.project, "README.md"))
	assert.NoFileExists(t, filepath.Join(setup.project, "install.sh"))
	assert.NoFileExists(t, filepath.Join(setup.project, "install.py"))

	require.Len(t, fetcher.scratch, 1)
	requireRemoved(t, fetcher.scratch[0])

	assert.Contains(t, output(), "Installing Claude Code configuration for: python go")
	assert.Contains(t, output(), "✓ Installation complete")
	assert.NotContains(t, output(), "Backed up existing config")
}

func TestProjectInstall_IdempotentWithOneBackupPerRun(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	single := newTestSetup(t)
	singleInstaller, _ := newProjectInstaller(t, single, &fakeFetcher{files: testutil.ProjectBundleFiles("python", "go")}, nil)
	_, err := singleInstaller.Install(ctx, ProjectOptions{Languages: []string{"go"}})
	require.NoError(t, err)

	setup := newTestSetup(t)
	fetcher := &fakeFetcher{files: testutil.ProjectBundleFiles("python", "go")}
	installer, _ := newProjectInstaller(t, setup, fetcher, nil)

	first, err := installer.Install(ctx, ProjectOptions{Languages: []string{"go"}})
	require.NoError(t, err)
	assert.True(t, first.Backup.Empty())
	assert.Empty(t, backupDirs(t, setup.project))

	second, err := installer.Install(ctx, ProjectOptions{Languages: []string{"go"}})
	require.NoError(t, err)
	require.Len(t, backupDirs(t, setup.project), 1)
	assert.ElementsMatch(t, []string{".claude", "CLAUDE.md", "agent_instructions"}, second.Backup.Items)

	third, err := installer.Install(ctx, ProjectOptions{Languages: []string{"go"}})
	require.NoError(t, err)
	require.Len(t, backupDirs(t, setup.project), 2)
	assert.NotEqual(t, second.Backup.Dir, third.Backup.Dir)

	assert.Equal(t, snapshot(t, single.project), snapshot(t, setup.project))
	assert.FileExists(t, filepath.Join(second.Backup.Dir, "agent_instructions", "languages", "go", "style.md"))
}

func TestProjectInstall_KeepsUnrelatedFiles(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	require.NoError(t, os.WriteFile(filepath.Join(setup.project, "main.go"), []byte("package main"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(setup.project, "CLAUDE.md"), []byte("mine"), 0o644))
	installer, output := newProjectInstaller(t, setup, &fakeFetcher{files: testutil.ProjectBundleFiles("go")}, nil)

	result, err := installer.Install(ctx, ProjectOptions{Languages: []string{"go"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"CLAUDE.md"}, result.Backup.Items)
	assert.FileExists(t, filepath.Join(setup.project, "main.go"))
	saved, err := os.ReadFile(filepath.Join(result.Backup.Dir, "CLAUDE.md"))
	require.NoError(t, err)
	assert.Equal(t, "mine", string(saved))
	assert.Contains(t, output(), "To rollback this installation, run:")
}

func TestProjectInstall_AllLanguagesByDefault(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	installer, output := newProjectInstaller(t, setup, &fakeFetcher{files: testutil.ProjectBundleFiles("rust", "go")}, nil)

	result, err := installer.Install(ctx, ProjectOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "rust"}, result.Languages.Names())
	assert.ElementsMatch(t, []string{"go", "rust"},
		dirNames(t, filepath.Join(setup.project, "agent_instructions", "languages")))
	assert.Contains(t, output(), "No languages specified, installing all available languages...")
}

func TestProjectInstall_Interactive(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	installer, output := newProjectInstaller(t, setup, &fakeFetcher{files: testutil.ProjectBundleFiles("python", "go", "rust")}, nil)

	result, err := installer.Install(ctx, ProjectOptions{
		Interactive: true,
		Prompter:    answerPrompter{answer: "2 rust"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"python", "rust"}, result.Languages.Names())
	assert.Contains(t, output(), "  1. go")
}

func TestProjectInstall_InteractiveCancelled(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	fetcher := &fakeFetcher{files: testutil.ProjectBundleFiles("go")}
	installer, output := newProjectInstaller(t, setup, fetcher, nil)

	_, err := installer.Install(ctx, ProjectOptions{
		Interactive: true,
		Prompter:    answerPrompter{err: prompt.ErrCancelled},
	})

	require.ErrorIs(t, err, prompt.ErrCancelled)
	assert.Contains(t, output(), "Installation cancelled")
	assert.Empty(t, dirNames(t, setup.project))
	requireRemoved(t, fetcher.scratch[0])
}

func TestProjectInstall_InteractiveWithoutPrompter(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	installer, _ := newProjectInstaller(t, setup, &fakeFetcher{files: testutil.ProjectBundleFiles("go")}, nil)

	_, err := installer.Install(ctx, ProjectOptions{Interactive: true})

	require.ErrorIs(t, err, ErrNoPrompter)
}

func TestProjectInstall_UnknownLanguage(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	fetcher := &fakeFetcher{files: testutil.ProjectBundleFiles("python", "go")}
	installer, _ := newProjectInstaller(t, setup, fetcher, nil)

	_, err := installer.Install(ctx, ProjectOptions{Languages: []string{"go", "java"}})

	require.ErrorIs(t, err, languages.ErrUnknownLanguage)
	assert.Contains(t, err.Error(), "java")
	assert.Empty(t, dirNames(t, setup.project))
	requireRemoved(t, fetcher.scratch[0])
}

func TestProjectInstall_RefusesUnsafeDestination(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	setup.env.WorkDir = setup.home
	fetcher := &fakeFetcher{files: testutil.ProjectBundleFiles("go")}
	installer, _ := newProjectInstaller(t, setup, fetcher, nil)

	_, err := installer.Install(ctx, ProjectOptions{})

	require.ErrorIs(t, err, safety.ErrUnsafeDirectory)
	assert.Zero(t, fetcher.calls)
}

func TestProjectInstall_RefusesRoot(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	setup.env.EUID = 0
	fetcher := &fakeFetcher{files: testutil.ProjectBundleFiles("go")}
	installer, _ := newProjectInstaller(t, setup, fetcher, nil)

	_, err := installer.Install(ctx, ProjectOptions{})

	require.ErrorIs(t, err, safety.ErrRunningAsRoot)
	assert.Zero(t, fetcher.calls)
}

func TestProjectInstall_FetchFailure(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	boom := errors.New("network down")
	fetcher := &fakeFetcher{err: boom}
	installer, _ := newProjectInstaller(t, setup, fetcher, nil)

	_, err := installer.Install(ctx, ProjectOptions{Languages: []string{"go"}})

	require.ErrorIs(t, err, boom)
	requireRemoved(t, fetcher.scratch[0])
}

func TestProjectInstall_MissingProjectSetup(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	fetcher := &fakeFetcher{files: testutil.ProjectBundleFiles("go"), noSubdir: true}
	installer, _ := newProjectInstaller(t, setup, fetcher, nil)

	_, err := installer.Install(ctx, ProjectOptions{Languages: []string{"go"}})

	require.ErrorIs(t, err, ErrMissingExpectedFile)
	requireRemoved(t, fetcher.scratch[0])
}

func TestProjectInstall_RecordsHistory(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	manager, err := database.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = manager.Close() }()
	store := history.NewStore(manager.DB(), nil)

	setup := newTestSetup(t)
	require.NoError(t, os.WriteFile(filepath.Join(setup.project, "CLAUDE.md"), []byte("mine"), 0o644))
	installer, _ := newProjectInstaller(t, setup, &fakeFetcher{files: testutil.ProjectBundleFiles("python", "go")}, store)

	result, err := installer.Install(ctx, ProjectOptions{Languages: []string{"go"}})
	require.NoError(t, err)

	_, err = installer.Install(ctx, ProjectOptions{Languages: []string{"java"}})
	require.Error(t, err)

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	failed, succeeded := runs[0], runs[1]
	assert.Equal(t, history.StatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "java")
	assert.Equal(t, history.StatusSucceeded, succeeded.Status)
	assert.Equal(t, history.ModeProject, succeeded.Mode)
	assert.Equal(t, setup.project, succeeded.Destination)
	assert.Equal(t, []string{"go"}, succeeded.Languages)
	assert.Equal(t, result.Backup.Dir, succeeded.BackupDir)
}

type failingRecorder struct{}

func (failingRecorder) Start(context.Context, history.Mode, string) (*history.Run, error) {
	return nil, errors.New("database is locked")
}

func (failingRecorder) Finish(context.Context, *history.Run, error) error {
	return errors.New("database is locked")
}

func TestProjectInstall_HistoryFailureDoesNotAbort(t *testing.T) {
	t.Parallel()
	ctx, logs := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	installer, _ := newProjectInstaller(t, setup, &fakeFetcher{files: testutil.ProjectBundleFiles("go")}, failingRecorder{})

	_, err := installer.Install(ctx, ProjectOptions{Languages: []string{"go"}})

	require.NoError(t, err)
	assert.Contains(t, logs(), "Failed to record install run")
}

func TestProjectInstaller_AvailableLanguages(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	fetcher := &fakeFetcher{files: testutil.ProjectBundleFiles("rust", "python", "go")}
	installer, _ := newProjectInstaller(t, setup, fetcher, nil)

	names, err := installer.AvailableLanguages(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"go", "python", "rust"}, names)
	assert.Empty(t, dirNames(t, setup.project))
	requireRemoved(t, fetcher.scratch[0])
}

func TestProjectInstaller_AvailableLanguagesRefusesRoot(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	setup := newTestSetup(t)
	setup.env.EUID = 0
	fetcher := &fakeFetcher{files: testutil.ProjectBundleFiles("go")}
	installer, _ := newProjectInstaller(t, setup, fetcher, nil)

	_, err := installer.AvailableLanguages(ctx)

	require.ErrorIs(t, err, safety.ErrRunningAsRoot)
	assert.Zero(t, fetcher.calls)
	assert.Empty(t, fetcher.scratch)
}

func TestProjectInstall_InterruptedAfterFetch(t *testing.T) {
	t.Parallel()
	baseCtx, _ := testutil.NewTestContext(t)
	manager, err := database.Open(baseCtx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = manager.Close() }()
	store := history.NewStore(manager.DB(), nil)

	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()
	setup := newTestSetup(t)
	fetcher := &fakeFetcher{files: testutil.ProjectBundleFiles("go"), onFetch: cancel}
	installer, output := newProjectInstaller(t, setup, fetcher, store)

	_, err = installer.Install(ctx, ProjectOptions{Languages: []string{"go"}})

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dirNames(t, setup.project))
	assert.NotContains(t, output(), "Installation complete")
	requireRemoved(t, fetcher.scratch[0])

	runs, err := store.List(baseCtx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, history.StatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "interrupted")
}

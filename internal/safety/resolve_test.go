package safety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected int
	}{
		{path: "/", expected: 1},
		{path: "/tmp", expected: 2},
		{path: "/tmp/a/b", expected: 4},
		{path: "relative/path", expected: 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Components(tt.path))
		})
	}
}

func TestIsStrictlyWithin(t *testing.T) {
	t.Parallel()

	assert.True(t, IsStrictlyWithin("/tmp", "/tmp/a"))
	assert.True(t, IsStrictlyWithin("/tmp", "/tmp/..hidden"))
	assert.False(t, IsStrictlyWithin("/tmp", "/tmp"))
	assert.False(t, IsStrictlyWithin("/tmp", "/tmpfoo"))
	assert.False(t, IsStrictlyWithin("/tmp", "/var/tmp"))
	assert.True(t, IsWithin("/tmp", "/tmp"))
}

func TestResolve_FollowsSymlinksAndKeepsMissingTail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	realDir := filepath.Join(dir, "real")
	require.NoError(t, os.Mkdir(realDir, 0o750))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(realDir, link))

	expectedReal, err := filepath.EvalSymlinks(realDir)
	require.NoError(t, err)

	resolved, err := Resolve("/", filepath.Join(link, "missing", "file"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(expectedReal, "missing", "file"), resolved)
}

func TestResolve_RelativeToBase(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	expectedBase, err := filepath.EvalSymlinks(base)
	require.NoError(t, err)

	resolved, err := Resolve(base, "sub/../other")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(expectedBase, "other"), resolved)
}

func TestResolveEntry_KeepsFinalSymlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o600))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	expectedDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	resolved, err := ResolveEntry("/", link)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(expectedDir, "link"), resolved)

	root, err := ResolveEntry("/", "/")
	require.NoError(t, err)
	assert.Equal(t, "/", root)
}

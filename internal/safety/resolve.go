package safety

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// Resolve returns the canonical absolute form of path. Relative paths are
// taken against base. Symlinks are followed for every existing prefix of the
// path; missing trailing elements are appended unchanged.
func Resolve(base, path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	return evalExisting(filepath.Clean(path))
}

// ResolveEntry resolves the parent of path but keeps its final element, so a
// symlink resolves to itself rather than to its target.
func ResolveEntry(base, path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	path = filepath.Clean(path)

	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}

	resolvedParent, err := evalExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}

func evalExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err //nolint:wrapcheck // EvalSymlinks errors carry the path
	}

	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}

	resolvedParent, err := evalExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}

// Components counts path elements the way a root-anchored path splits:
// "/" has one component, "/tmp" two.
func Components(path string) int {
	count := 0
	if filepath.IsAbs(path) {
		count++
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part != "" && part != "." {
			count++
		}
	}
	return count
}

// IsStrictlyWithin reports whether child lies inside parent and is not parent itself.
func IsStrictlyWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsWithin reports whether child is parent or lies inside it.
func IsWithin(parent, child string) bool {
	return parent == child || IsStrictlyWithin(parent, child)
}

package languages

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/a-gn/claude-setup/internal/constants"
	"github.com/a-gn/claude-setup/internal/logging"
	"github.com/spf13/afero"
)

// Remover deletes scratch entries. safety.Deleter satisfies it.
type Remover interface {
	Delete(ctx context.Context, path string, allowDirectory bool) error
}

// Filter trims a fetched bundle to a language selection.
type Filter struct {
	fileSystem afero.Fs
	remover    Remover
}

// NewFilter creates a Filter. A nil filesystem means the OS filesystem.
func NewFilter(fileSystem afero.Fs, remover Remover) *Filter {
	return &Filter{fileSystem: fileSystem, remover: remover}
}

func (f *Filter) getFileSystem() afero.Fs {
	if f.fileSystem != nil {
		return f.fileSystem
	}
	return afero.NewOsFs()
}

// LanguagesDir is where a bundle keeps its per-language folders.
func LanguagesDir(bundleRoot string) string {
	return filepath.Join(bundleRoot, filepath.FromSlash(constants.LanguagesDir))
}

// Available lists the language folders of a bundle, sorted by name.
func Available(fileSystem afero.Fs, bundleRoot string) ([]string, error) {
	dir := LanguagesDir(bundleRoot)
	entries, err := afero.ReadDir(fileSystem, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingLanguagesDir, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read languages directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Validate checks that every selected language has a folder in the bundle.
func Validate(fileSystem afero.Fs, bundleRoot string, sel Selection) error {
	available, err := Available(fileSystem, bundleRoot)
	if err != nil {
		return err
	}

	present := make(map[string]struct{}, len(available))
	for _, name := range available {
		present[name] = struct{}{}
	}

	for _, name := range sel.Names() {
		if _, ok := present[name]; !ok {
			return fmt.Errorf("%w: %q (available: %s)",
				ErrUnknownLanguage, name, strings.Join(available, ", "))
		}
	}
	return nil
}

// Apply deletes every language folder outside sel and then filters the
// bundle manifest.
func (f *Filter) Apply(ctx context.Context, bundleRoot string, sel Selection) error {
	if sel.Empty() {
		return ErrEmptySelection
	}

	fileSystem := f.getFileSystem()
	available, err := Available(fileSystem, bundleRoot)
	if err != nil {
		return err
	}

	logger := logging.Get(ctx)
	for _, name := range available {
		if sel.Contains(name) {
			continue
		}
		path := filepath.Join(LanguagesDir(bundleRoot), name)
		logger.Debug().Str("language", name).Str("path", path).Msg("Removing unselected language")
		if err := f.remover.Delete(ctx, path, true); err != nil {
			return fmt.Errorf("failed to remove language %s: %w", name, err)
		}
	}

	return FilterManifest(fileSystem, filepath.Join(bundleRoot, constants.ManifestFilename), sel)
}

// FilterManifest rewrites the manifest at path, keeping language references
// only for selected languages. The selection must not be empty. A reference whose language segment is empty
// is dropped.
func FilterManifest(fileSystem afero.Fs, path string, sel Selection) error {
	info, err := fileSystem.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissingManifest, path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat manifest %s: %w", path, err)
	}
	if sel.Empty() {
		return ErrEmptySelection
	}

	content, err := afero.ReadFile(fileSystem, path)
	if err != nil {
		return fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if keepLine(line, sel) {
			kept = append(kept, line)
		}
	}

	output := strings.Join(kept, "\n") + "\n"
	if err := afero.WriteFile(fileSystem, path, []byte(output), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

func keepLine(line string, sel Selection) bool {
	language, referenced := ReferencedLanguage(line)
	if !referenced {
		return true
	}
	return language != "" && sel.Contains(language)
}

// ReferencedLanguage extracts the language named by a manifest reference.
// The second result is false when the line carries no reference.
func ReferencedLanguage(line string) (string, bool) {
	_, rest, found := strings.Cut(line, constants.LanguageMarker)
	if !found {
		return "", false
	}
	language, _, _ := strings.Cut(rest, "/")
	return language, true
}

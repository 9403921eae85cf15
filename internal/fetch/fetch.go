// Package fetch retrieves the instruction bundle, either as an archive
// snapshot over HTTPS or as a git clone.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/a-gn/claude-setup/internal/constants"
	"github.com/a-gn/claude-setup/internal/logging"
	"github.com/spf13/afero"
)

const defaultTimeout = 2 * time.Minute

var (
	ErrHTTPStatus         = errors.New("unexpected HTTP status")
	ErrUnsafeArchiveEntry = errors.New("archive entry escapes extraction directory")
)

// Fetcher downloads an archive and extracts it below destDir, returning the
// directory holding the extracted entries.
type Fetcher interface {
	FetchAndExtract(ctx context.Context, url, destDir string) (string, error)
}

// HTTPFetcher downloads zip archives over HTTP.
type HTTPFetcher struct {
	fileSystem afero.Fs
	client     *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A nil filesystem means the OS
// filesystem; a non-positive timeout uses the default.
func NewHTTPFetcher(fileSystem afero.Fs, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPFetcher{
		fileSystem: fileSystem,
		client:     &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) getFileSystem() afero.Fs {
	if f.fileSystem != nil {
		return f.fileSystem
	}
	return afero.NewOsFs()
}

// FetchAndExtract saves the archive at url as destDir/repo.zip and extracts it
// into destDir/extract.
func (f *HTTPFetcher) FetchAndExtract(ctx context.Context, url, destDir string) (string, error) {
	archivePath := filepath.Join(destDir, constants.ArchiveFilename)
	if err := f.download(ctx, url, archivePath); err != nil {
		return "", err
	}

	extractDir := filepath.Join(destDir, constants.ExtractDirName)
	if err := f.getFileSystem().Mkdir(extractDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create extraction directory: %w", err)
	}

	if err := ExtractZip(f.getFileSystem(), archivePath, extractDir); err != nil {
		return "", err
	}

	logging.Get(ctx).Debug().Str("url", url).Str("dir", extractDir).Msg("Extracted archive")
	return extractDir, nil
}

func (f *HTTPFetcher) download(ctx context.Context, url, target string) error {
	logger := logging.Get(ctx)
	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: %w: %d", url, ErrHTTPStatus, resp.StatusCode)
	}

	file, err := f.getFileSystem().OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	written, err := io.Copy(file, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to save download: %w", err)
	}

	logger.Debug().
		Str("url", url).
		Int64("bytes", written).
		Dur("elapsed", time.Since(started)).
		Msg("Downloaded archive")
	return nil
}

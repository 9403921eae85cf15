package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/a-gn/claude-setup/internal/logging"
)

var ErrCloneFailed = errors.New("git clone failed")

// Cloner clones a repository into dest.
type Cloner interface {
	Clone(ctx context.Context, url, dest string) error
}

// GitCloner runs the git executable.
type GitCloner struct {
	// Binary is the git executable; empty means "git" from PATH.
	Binary string
}

// Clone runs git clone url dest. A failure carries git's stderr.
func (g GitCloner) Clone(ctx context.Context, url, dest string) error {
	binary := g.Binary
	if binary == "" {
		binary = "git"
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("%w: %s not found: %w", ErrCloneFailed, binary, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "clone", "--quiet", url, dest) // #nosec G204
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger := logging.Get(ctx)
	logger.Debug().Str("url", url).Str("dest", dest).Msg("Cloning repository")

	if err := cmd.Run(); err != nil {
		message := strings.TrimSpace(stderr.String())
		logger.Debug().Err(err).Str("stderr", message).Msg("git clone failed")
		if message == "" {
			return fmt.Errorf("%w: %w", ErrCloneFailed, err)
		}
		return fmt.Errorf("%w: %w: %s", ErrCloneFailed, err, message)
	}
	return nil
}

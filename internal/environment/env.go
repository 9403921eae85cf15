// Package environment captures the process state the installers depend on,
// so it can be passed around explicitly and fabricated in tests.
package environment

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Env holds the working directory, home directory, effective user and
// clock an install run observes.
type Env struct {
	Now       func() time.Time
	WorkDir   string
	HomeDir   string
	TempRoots []string
	EUID      int
}

// FromOS builds an Env from the running process.
func FromOS() (Env, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Env{}, fmt.Errorf("failed to get current working directory: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Env{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	return Env{
		WorkDir:   cwd,
		HomeDir:   home,
		EUID:      os.Geteuid(),
		TempRoots: DefaultTempRoots(),
		Now:       time.Now,
	}, nil
}

// DefaultTempRoots lists the directories under which scratch data may be deleted.
func DefaultTempRoots() []string {
	roots := []string{
		"/tmp",
		"/private/tmp",
		"/var/tmp",
		"/var/folders",
		"/private/var/folders",
	}
	if tmp := os.TempDir(); tmp != "" {
		roots = append(roots, tmp)
	}
	return roots
}

// IsRoot reports whether the run has root privileges.
func (e Env) IsRoot() bool {
	return e.EUID == 0
}

// Time returns the current time from the injected clock.
func (e Env) Time() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Validate checks that the paths needed for path resolution are set.
func (e Env) Validate() error {
	if e.WorkDir == "" {
		return errors.New("working directory is not set")
	}
	if e.HomeDir == "" {
		return errors.New("home directory is not set")
	}
	return nil
}

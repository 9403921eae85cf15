package safety

import (
	"fmt"
	"path/filepath"

	"github.com/a-gn/claude-setup/internal/environment"
)

// ProtectedDirectories lists the directories nothing may be installed into directly.
func ProtectedDirectories(home string) []string {
	return []string{
		home,
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Desktop"),
		filepath.Join(home, "Downloads"),
		"/tmp",
		"/var",
		"/Users",
		"/home",
		"/System",
		"/usr",
		"/opt",
	}
}

// RefuseRoot fails when the run has root privileges.
func RefuseRoot(env environment.Env) error {
	if env.IsRoot() {
		return fmt.Errorf("%w: do not run the installer as root", ErrRunningAsRoot)
	}
	return nil
}

// ValidateInstallTarget rejects a project destination that resolves to one of
// the protected directories. Subdirectories of protected directories are allowed.
func ValidateInstallTarget(env environment.Env, target string) error {
	resolved, err := Resolve(env.WorkDir, target)
	if err != nil {
		return fmt.Errorf("failed to resolve install target %s: %w", target, err)
	}

	for _, protected := range ProtectedDirectories(env.HomeDir) {
		resolvedProtected, err := Resolve(env.WorkDir, protected)
		if err != nil {
			return fmt.Errorf("failed to resolve protected directory %s: %w", protected, err)
		}
		if resolved == resolvedProtected {
			return fmt.Errorf("%w: cannot install in %q", ErrUnsafeDirectory, protected)
		}
	}

	return nil
}

// ValidateUserTarget requires the user configuration directory to live inside home.
func ValidateUserTarget(env environment.Env, target string) error {
	resolved, err := Resolve(env.WorkDir, target)
	if err != nil {
		return fmt.Errorf("failed to resolve install target %s: %w", target, err)
	}

	home, err := Resolve(env.WorkDir, env.HomeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve home directory %s: %w", env.HomeDir, err)
	}

	if !IsWithin(home, resolved) {
		return fmt.Errorf("%w: %q is not inside home directory %q", ErrUnsafeDirectory, resolved, home)
	}
	return nil
}

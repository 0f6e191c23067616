package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotDirectory is returned when the watch root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// executable is swapped in tests.
var executable = os.Executable

// ResolveRoot returns the absolute watch root. An empty dir selects the
// directory holding the running executable, so the result never depends
// on the current working directory.
func ResolveRoot(dir string) (string, error) {
	if dir == "" {
		exe, err := executable()
		if err != nil {
			return "", fmt.Errorf("locating executable: %w", err)
		}

		if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
			exe = resolved
		}

		dir = filepath.Dir(exe)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving watch root %q: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("resolving watch root: %w", err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("resolving watch root %s: %w", abs, ErrNotDirectory)
	}

	return abs, nil
}

package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "statebox"

// DefaultDir returns the application-support style location for the store:
// <user config dir>/statebox/state.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDirName, "state"), nil
}

// FallbackDir returns the temp-directory location used when the preferred
// directory is unusable. The OS may reclaim its contents.
func FallbackDir() string {
	return filepath.Join(os.TempDir(), appDirName, "state")
}

// ResolveDir picks the store directory once. It tries preferred (DefaultDir
// when empty) and falls back to FallbackDir; degraded reports the fallback.
func ResolveDir(preferred string) (dir string, degraded bool, err error) {
	var primaryErr error
	if preferred == "" {
		preferred, primaryErr = DefaultDir()
	}
	if primaryErr == nil {
		if primaryErr = ensureDir(preferred); primaryErr == nil {
			return preferred, false, nil
		}
	}

	fallback := FallbackDir()
	if err := ensureDir(fallback); err != nil {
		return "", false, errors.Join(
			fmt.Errorf("preferred dir: %w", primaryErr),
			fmt.Errorf("fallback dir %s: %w", fallback, err),
		)
	}
	return fallback, true, nil
}

// ensureDir creates dir with owner-only permissions and checks it is writable.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

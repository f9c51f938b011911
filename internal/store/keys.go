package store

import (
	"fmt"
	"strings"

	"statebox/internal/domain"
)

const (
	// fileSuffix marks encrypted entries in the store directory.
	fileSuffix = ".enc"
	// tempInfix appears in the names of in-progress writes.
	tempInfix = ".tmp-"
	// maxKeyLen leaves room for the suffix and temp infix under the usual
	// 255-byte file name limit.
	maxKeyLen = 200
)

// validateKey checks that key is usable as a single file name component.
func validateKey(key domain.Key) error {
	k := string(key)
	switch {
	case k == "":
		return fmt.Errorf("%w: empty key", domain.ErrInvalidState)
	case k == "." || k == "..":
		return fmt.Errorf("%w: key %q is a path alias", domain.ErrInvalidState, k)
	case len(k) > maxKeyLen:
		return fmt.Errorf("%w: key longer than %d bytes", domain.ErrInvalidState, maxKeyLen)
	case strings.ContainsAny(k, "/\\\x00"):
		return fmt.Errorf("%w: key %q contains a path separator", domain.ErrInvalidState, k)
	case strings.HasSuffix(k, fileSuffix):
		return fmt.Errorf("%w: key %q ends in %s", domain.ErrInvalidState, k, fileSuffix)
	}
	return nil
}

// fileName returns the on-disk name for key.
func fileName(key domain.Key) string { return string(key) + fileSuffix }

// keyFromName reverses fileName; ok is false for names that are not entries.
func keyFromName(name string) (domain.Key, bool) {
	k, ok := strings.CutSuffix(name, fileSuffix)
	if !ok || k == "" {
		return "", false
	}
	return domain.Key(k), true
}

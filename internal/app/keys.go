package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"statebox/internal/crypto"
	"statebox/internal/store"
)

// ErrNoKey is returned when neither STATEBOX_KEY nor a key file is available.
var ErrNoKey = errors.New("no state key: run `statebox keygen` or set STATEBOX_KEY")

// ErrKeyExists is returned by GenerateKeyFile when the file exists and
// overwriting was not requested.
var ErrKeyExists = errors.New("key file already exists")

// LoadBox builds the Box from cfg.Key when set, otherwise from the sealed key
// file opened with cfg.Passphrase.
func LoadBox(cfg *Config) (*crypto.Box, error) {
	if cfg.Key != "" {
		key, err := crypto.DecodeKey(cfg.Key)
		if err != nil {
			return nil, err
		}
		defer crypto.Wipe(key)
		return crypto.NewBoxWithKey(key)
	}

	path, err := cfg.KeyFilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w (looked in %s)", ErrNoKey, path)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Passphrase == "" {
		return nil, fmt.Errorf("passphrase required to open %s (-p or STATEBOX_PASSPHRASE)", path)
	}
	key, err := crypto.OpenKey(cfg.Passphrase, data)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)
	return crypto.NewBoxWithKey(key)
}

// GenerateKeyFile creates a random key, seals it under passphrase and writes
// it to path with mode 0600. It returns the new key's fingerprint.
func GenerateKeyFile(path, passphrase string, params crypto.KDFParams, force bool) (string, error) {
	if passphrase == "" {
		return "", fmt.Errorf("passphrase required (-p)")
	}
	box, err := crypto.NewBox()
	if err != nil {
		return "", err
	}
	defer box.Destroy()

	key := box.ExportKey()
	defer crypto.Wipe(key)
	sealed, err := crypto.SealKey(passphrase, key, params)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}
	if !force {
		if _, err := os.Lstat(path); err == nil {
			return "", fmt.Errorf("%w: %s (use --force to replace it; existing state becomes unreadable)", ErrKeyExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	if err := store.WriteFile(path, sealed, 0o600); err != nil {
		return "", err
	}
	return box.Fingerprint(), nil
}

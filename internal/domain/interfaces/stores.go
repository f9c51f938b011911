package interfaces

import (
	"context"

	domaintypes "statebox/internal/domain/types"
)

// Cipher seals and opens opaque byte payloads.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(blob []byte) ([]byte, error)
}

// StateStore persists encrypted values, one file per key.
type StateStore interface {
	Save(ctx context.Context, key domaintypes.Key, value any) error
	// Restore decodes the value stored under key into out. A missing entry
	// reports found=false with a nil error.
	Restore(ctx context.Context, key domaintypes.Key, out any) (found bool, err error)
	Delete(ctx context.Context, key domaintypes.Key) error
	Exists(ctx context.Context, key domaintypes.Key) (bool, error)
	ListKeys(ctx context.Context) ([]domaintypes.Key, error)
}

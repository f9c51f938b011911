package crypto

import (
	"encoding/base64"
	"fmt"

	"statebox/internal/domain"
)

// EncodeKey returns standard base64 of a raw key without newlines.
func EncodeKey(key []byte) string { return base64.StdEncoding.EncodeToString(key) }

// DecodeKey parses a base64 key and checks it has the Box key size.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: decode key: %w", domain.ErrInvalidData, err)
	}
	if len(key) != KeySize {
		Wipe(key)
		return nil, fmt.Errorf("%w: key is %d bytes, want %d", domain.ErrInvalidData, len(key), KeySize)
	}
	return key, nil
}

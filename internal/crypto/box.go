package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"statebox/internal/domain"
)

const (
	// KeySize is the Box key length in bytes (256-bit).
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the length of the nonce prefix of every blob.
	NonceSize = chacha20poly1305.NonceSize
	// Overhead is the authentication tag length appended to every blob.
	Overhead = chacha20poly1305.Overhead
)

var errDestroyed = errors.New("key destroyed")

// Box seals and opens byte payloads under one symmetric key.
//
// Blob layout: nonce (12) ‖ ciphertext ‖ tag (16). A fresh random nonce is
// drawn for every Encrypt. Encrypt and Decrypt are serialized per Box.
type Box struct {
	mu   sync.Mutex
	key  []byte
	aead cipher.AEAD
}

// NewBox returns a Box with a freshly generated random key.
func NewBox() (*Box, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("%w: generate key: %w", domain.ErrEncryptionFailed, err)
	}
	b, err := NewBoxWithKey(key)
	Wipe(key)
	return b, err
}

// NewBoxWithKey returns a Box using a copy of key, which must be KeySize bytes.
func NewBoxWithKey(key []byte) (*Box, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key is %d bytes, want %d", domain.ErrInvalidData, len(key), KeySize)
	}
	own := append([]byte(nil), key...)
	aead, err := chacha20poly1305.New(own)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidData, err)
	}
	return &Box{key: own, aead: aead}, nil
}

// Encrypt seals plaintext and returns nonce‖ciphertext‖tag.
func (b *Box) Encrypt(plaintext []byte) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.aead == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEncryptionFailed, errDestroyed)
	}
	out := make([]byte, NonceSize, NonceSize+len(plaintext)+Overhead)
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("%w: nonce: %w", domain.ErrEncryptionFailed, err)
	}
	return b.aead.Seal(out, out[:NonceSize], plaintext, nil), nil
}

// Decrypt verifies and opens a blob produced by Encrypt.
//
// A blob too short to hold a nonce and tag fails with domain.ErrInvalidData;
// a failed authentication fails with domain.ErrDecryptionFailed.
func (b *Box) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < NonceSize+Overhead {
		return nil, fmt.Errorf("%w: blob is %d bytes, need at least %d",
			domain.ErrInvalidData, len(blob), NonceSize+Overhead)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.aead == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecryptionFailed, errDestroyed)
	}
	pt, err := b.aead.Open(nil, blob[:NonceSize], blob[NonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecryptionFailed, err)
	}
	return pt, nil
}

// ExportKey returns a copy of the raw key for storage in a secret store.
func (b *Box) ExportKey() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.key...)
}

// Fingerprint returns a short fingerprint identifying the key.
func (b *Box) Fingerprint() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Fingerprint(b.key)
}

// Destroy wipes the key. Later Encrypt and Decrypt calls fail.
func (b *Box) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	Wipe(b.key)
	b.key = nil
	b.aead = nil
}

// Fingerprint hashes b with SHA-256 and returns the first 10 bytes as hex.
func Fingerprint(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:10])
}

// Wipe zeroes b. Best-effort: the runtime may already hold other copies.
//
//go:noinline
func Wipe(b []byte) {
	clear(b)
	runtime.KeepAlive(&b)
}

// Compile-time assertion that Box implements domain.Cipher.
var _ domain.Cipher = (*Box)(nil)

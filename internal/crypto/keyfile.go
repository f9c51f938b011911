package crypto

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"statebox/internal/domain"
)

// keyFileVersion is the current version of the sealed key file format.
const keyFileVersion = 1

// ErrWrongPassphrase is returned when a key file cannot be opened with the
// given passphrase, or its ciphertext has been modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted key file")

// KDFParams are the scrypt cost parameters recorded in a key file.
type KDFParams struct {
	N int `json:"scrypt_N"`
	R int `json:"scrypt_r"`
	P int `json:"scrypt_p"`
}

// DefaultKDFParams are the interactive-login scrypt costs.
func DefaultKDFParams() KDFParams { return KDFParams{N: 1 << 15, R: 8, P: 1} }

// Upper bounds on scrypt costs accepted from a key file. N=1<<20 with r=32
// already needs 4 GiB; anything past that is treated as a damaged file.
const (
	maxScryptN = 1 << 20
	maxScryptR = 32
	maxScryptP = 16
)

// check rejects costs scrypt cannot use or that exceed the caps.
func (p KDFParams) check() error {
	switch {
	case p.N < 2 || p.N&(p.N-1) != 0 || p.N > maxScryptN:
		return fmt.Errorf("scrypt N=%d must be a power of two in [2, %d]", p.N, maxScryptN)
	case p.R < 1 || p.R > maxScryptR:
		return fmt.Errorf("scrypt r=%d must be in [1, %d]", p.R, maxScryptR)
	case p.P < 1 || p.P > maxScryptP:
		return fmt.Errorf("scrypt p=%d must be in [1, %d]", p.P, maxScryptP)
	}
	return nil
}

// keyFile is the on-disk JSON envelope holding a sealed Box key.
type keyFile struct {
	V     int    `json:"v"`
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	KDFParams
	Cipher []byte `json:"cipher"`
}

// SealKey wraps key under a key-encryption key derived from passphrase and
// returns the JSON envelope to write to disk.
func SealKey(passphrase string, key []byte, params KDFParams) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: empty passphrase", domain.ErrEncryptionFailed)
	}
	if err := params.check(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEncryptionFailed, err)
	}
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, fmt.Errorf("%w: salt: %w", domain.ErrEncryptionFailed, err)
	}
	kek, err := scrypt.Key([]byte(passphrase), salt[:], params.N, params.R, params.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("%w: derive: %w", domain.ErrEncryptionFailed, err)
	}
	defer Wipe(kek)

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEncryptionFailed, err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: nonce: %w", domain.ErrEncryptionFailed, err)
	}
	ct := aead.Seal(nil, nonce, key, salt[:])

	return json.MarshalIndent(keyFile{
		V:         keyFileVersion,
		Salt:      salt[:],
		Nonce:     nonce,
		KDFParams: params,
		Cipher:    ct,
	}, "", "  ")
}

// OpenKey reverses SealKey.
func OpenKey(passphrase string, data []byte) ([]byte, error) {
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("%w: key file: %w", domain.ErrInvalidData, err)
	}
	if kf.V > keyFileVersion {
		return nil, fmt.Errorf("%w: unsupported key file version %d", domain.ErrInvalidData, kf.V)
	}
	// Costs come from the file and are unauthenticated until after derivation.
	if err := kf.KDFParams.check(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidData, err)
	}

	kek, err := scrypt.Key([]byte(passphrase), kf.Salt, kf.N, kf.R, kf.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("%w: derive: %w", domain.ErrInvalidData, err)
	}
	defer Wipe(kek)

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecryptionFailed, err)
	}
	if len(kf.Nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce length %d", domain.ErrInvalidData, len(kf.Nonce))
	}
	key, err := aead.Open(nil, kf.Nonce, kf.Cipher, kf.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecryptionFailed, ErrWrongPassphrase)
	}
	if len(key) != KeySize {
		Wipe(key)
		return nil, fmt.Errorf("%w: sealed key is %d bytes", domain.ErrInvalidData, len(key))
	}
	return key, nil
}

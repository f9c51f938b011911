package domain

import "errors"

// Error taxonomy. Components wrap these with fmt.Errorf("%w: ...: %w", sentinel, cause)
// so errors.Is matches both the category and the root cause.
var (
	// ErrStateSavingFailed reports a save that failed to serialize, encrypt or write.
	ErrStateSavingFailed = errors.New("state saving failed")

	// ErrStateRestorationFailed reports a restore that failed to read, decrypt or decode.
	ErrStateRestorationFailed = errors.New("state restoration failed")

	// ErrInvalidState is the catch-all for malformed or unexpected state,
	// such as an unusable key or an operation on a closed store.
	ErrInvalidState = errors.New("invalid state")

	// ErrEncryptionFailed is returned when the AEAD primitive or nonce source fails.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed is returned when authentication fails: tampering,
	// wrong key or corruption.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidData is returned for a blob that is malformed or too short to parse.
	ErrInvalidData = errors.New("invalid data")
)

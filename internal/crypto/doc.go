// Package crypto holds the symmetric primitives used by statebox.
//
// Contents
//
//   - Box: a single-key ChaCha20-Poly1305 sealer producing nonce‖ciphertext‖tag
//     blobs, with serialized access to the key (NewBox, NewBoxWithKey)
//   - Passphrase-sealed key files for keeping an exported Box key outside the
//     state directory (SealKey, OpenKey)
//   - Base64 helpers for moving raw keys through env vars and terminals
//     (EncodeKey, DecodeKey)
//   - Short key fingerprints for display/logging (Fingerprint)
//   - Best-effort memory wiping for key material (Wipe)
//
// # Notes
//
// Box never writes its key anywhere. Callers that need data to survive a
// restart must export the key and keep it in a secret store of their own.
package crypto

// Package store provides the encrypted, file-per-key state store.
//
// Each key maps to one file <dir>/<key>.enc whose contents are the output of a
// domain.Cipher over the JSON encoding of the saved value. Nothing else is
// written: the directory listing is the index. Writes go to a temp file in the
// same directory and are renamed over the destination, so a crash never leaves
// a half-written file at the real path.
//
// Every operation runs on a small background pool; the calling goroutine only
// waits for the result. Once an operation has been handed to the pool it runs
// to completion even if the caller's context ends first. Concurrent saves to
// the same key are not ordered: the last rename wins.
//
// The directory is chosen once, by ResolveDir: the platform configuration
// directory (Application Support on macOS) when usable, else a temp directory
// whose contents the OS may reclaim. Store.Degraded reports the latter.
package store

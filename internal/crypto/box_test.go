package crypto_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statebox/internal/crypto"
	"statebox/internal/domain"
)

func TestBox_RoundTrip(t *testing.T) {
	box, err := crypto.NewBox()
	require.NoError(t, err)

	blob, err := box.Encrypt([]byte("hello state"))
	require.NoError(t, err)
	assert.Len(t, blob, crypto.NonceSize+len("hello state")+crypto.Overhead)

	pt, err := box.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, "hello state", string(pt))
}

func TestBox_EmptyPlaintext(t *testing.T) {
	box, err := crypto.NewBox()
	require.NoError(t, err)

	blob, err := box.Encrypt(nil)
	require.NoError(t, err)
	pt, err := box.Decrypt(blob)
	require.NoError(t, err)
	assert.Empty(t, pt)
}

func TestBox_FreshNoncePerCall(t *testing.T) {
	box, err := crypto.NewBox()
	require.NoError(t, err)

	a, err := box.Encrypt([]byte("same"))
	require.NoError(t, err)
	b, err := box.Encrypt([]byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a[:crypto.NonceSize], b[:crypto.NonceSize])
	assert.NotEqual(t, a, b)
}

func TestBox_ShortBlobIsInvalidData(t *testing.T) {
	box, err := crypto.NewBox()
	require.NoError(t, err)

	_, err = box.Decrypt(make([]byte, crypto.NonceSize+crypto.Overhead-1))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidData)
	assert.NotErrorIs(t, err, domain.ErrDecryptionFailed)
}

func TestBox_TamperIsDecryptionFailed(t *testing.T) {
	box, err := crypto.NewBox()
	require.NoError(t, err)

	blob, err := box.Encrypt([]byte("integrity matters"))
	require.NoError(t, err)

	for i := range blob {
		bad := bytes.Clone(blob)
		bad[i] ^= 0x01
		_, err := box.Decrypt(bad)
		require.Error(t, err, "byte %d", i)
		assert.ErrorIs(t, err, domain.ErrDecryptionFailed, "byte %d", i)
	}
}

func TestBox_WrongKeyFails(t *testing.T) {
	a, err := crypto.NewBox()
	require.NoError(t, err)
	b, err := crypto.NewBox()
	require.NoError(t, err)

	blob, err := a.Encrypt([]byte("secret"))
	require.NoError(t, err)
	_, err = b.Decrypt(blob)
	assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
}

func TestBox_ExportedKeyReopens(t *testing.T) {
	a, err := crypto.NewBox()
	require.NoError(t, err)
	blob, err := a.Encrypt([]byte("carry over"))
	require.NoError(t, err)

	key := a.ExportKey()
	require.Len(t, key, crypto.KeySize)

	// Mutating the export must not affect the box.
	exported := bytes.Clone(key)
	key[0] ^= 0xff
	_, err = a.Decrypt(blob)
	require.NoError(t, err)

	b, err := crypto.NewBoxWithKey(exported)
	require.NoError(t, err)
	pt, err := b.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, "carry over", string(pt))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestNewBoxWithKey_BadLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		_, err := crypto.NewBoxWithKey(make([]byte, n))
		assert.ErrorIs(t, err, domain.ErrInvalidData, "len %d", n)
	}
}

func TestBox_Destroy(t *testing.T) {
	box, err := crypto.NewBox()
	require.NoError(t, err)
	blob, err := box.Encrypt([]byte("x"))
	require.NoError(t, err)

	box.Destroy()

	_, err = box.Encrypt([]byte("x"))
	assert.ErrorIs(t, err, domain.ErrEncryptionFailed)
	_, err = box.Decrypt(blob)
	assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
	assert.Empty(t, box.ExportKey())
}

func TestBox_ConcurrentUse(t *testing.T) {
	box, err := crypto.NewBox()
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := []byte{byte(i)}
			blob, err := box.Encrypt(msg)
			if err != nil {
				errs <- err
				return
			}
			pt, err := box.Decrypt(blob)
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(pt, msg) {
				errs <- assert.AnError
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent round trip: %v", err)
	}
}

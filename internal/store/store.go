package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"statebox/internal/domain"
	"statebox/internal/metrics"
)

// DefaultWorkers is the size of the background I/O pool.
const DefaultWorkers = 4

var errClosed = errors.New("store closed")

// Store is an encrypted key→value store with one file per key.
type Store struct {
	dir      string
	degraded bool
	cipher   domain.Cipher
	mode     os.FileMode
	log      *zap.Logger
	metrics  *metrics.Metrics
	pool     *semaphore.Weighted

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// Option configures a Store.
type Option func(*options)

type options struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	workers int64
	mode    os.FileMode
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics records operations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithWorkers sets how many file operations may run at once.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = int64(n)
		}
	}
}

// WithFileMode sets the permissions of entry files. Default 0600.
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) { o.mode = mode }
}

func buildOptions(opts []Option) options {
	o := options{
		log:     zap.NewNop(),
		workers: DefaultWorkers,
		mode:    0o600,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New returns a Store rooted at dir, which must already exist.
func New(dir string, cipher domain.Cipher, opts ...Option) (*Store, error) {
	return newStore(dir, false, cipher, buildOptions(opts))
}

// Open resolves the store directory from preferred (see ResolveDir) and
// returns a Store rooted there.
func Open(preferred string, cipher domain.Cipher, opts ...Option) (*Store, error) {
	o := buildOptions(opts)
	dir, degraded, err := ResolveDir(preferred)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve store dir: %w", domain.ErrInvalidState, err)
	}
	if degraded {
		o.log.Warn("preferred state directory unavailable; using temporary directory, saved state may be reclaimed by the OS",
			zap.String("preferred", preferred),
			zap.String("dir", dir),
		)
	}
	return newStore(dir, degraded, cipher, o)
}

func newStore(dir string, degraded bool, cipher domain.Cipher, o options) (*Store, error) {
	if cipher == nil {
		return nil, fmt.Errorf("%w: nil cipher", domain.ErrInvalidState)
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidState, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidState, dir)
	}
	return &Store{
		dir:      dir,
		degraded: degraded,
		cipher:   cipher,
		mode:     o.mode,
		log:      o.log.With(zap.String("dir", dir)),
		metrics:  o.metrics,
		pool:     semaphore.NewWeighted(o.workers),
	}, nil
}

// Dir returns the directory holding the entries.
func (s *Store) Dir() string { return s.dir }

// Degraded reports whether the store fell back to a temporary directory.
func (s *Store) Degraded() bool { return s.degraded }

// Path returns the file backing key. It is exposed for diagnostics only.
func (s *Store) Path(key domain.Key) string { return filepath.Join(s.dir, fileName(key)) }

// Save encodes value, encrypts it and atomically writes it under key.
func (s *Store) Save(ctx context.Context, key domain.Key, value any) (err error) {
	defer s.observe(metrics.OpSave, time.Now(), &err)

	if err := validateKey(key); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStateSavingFailed, err)
	}
	// Encode on the caller's goroutine: the store only borrows value for the
	// duration of this call.
	raw, err := encode(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", domain.ErrStateSavingFailed, key, err)
	}

	path := s.Path(key)
	_, err = submit(ctx, s, func() (struct{}, error) {
		blob, err := s.cipher.Encrypt(raw)
		if err != nil {
			return struct{}{}, err
		}
		if err := WriteFile(path, blob, s.mode); err != nil {
			return struct{}{}, err
		}
		s.metrics.AddBytes("write", len(blob))
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrStateSavingFailed, key, err)
	}
	s.log.Debug("state saved", zap.String("key", key.String()), zap.Int("bytes", len(raw)))
	return nil
}

// Restore decodes the value stored under key into out, which must be a
// non-nil pointer. A missing entry returns found=false and a nil error.
func (s *Store) Restore(ctx context.Context, key domain.Key, out any) (found bool, err error) {
	defer s.observe(metrics.OpRestore, time.Now(), &err)

	if err := validateKey(key); err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrStateRestorationFailed, err)
	}
	if rv := reflect.ValueOf(out); rv.Kind() != reflect.Pointer || rv.IsNil() {
		return false, fmt.Errorf("%w: %w: restore target must be a non-nil pointer, got %T",
			domain.ErrStateRestorationFailed, domain.ErrInvalidState, out)
	}

	path := s.Path(key)
	type result struct {
		plain []byte
		found bool
	}
	res, err := submit(ctx, s, func() (result, error) {
		blob, found, err := readFile(path)
		if err != nil || !found {
			return result{}, err
		}
		s.metrics.AddBytes("read", len(blob))
		plain, err := s.cipher.Decrypt(blob)
		if err != nil {
			return result{}, err
		}
		return result{plain: plain, found: true}, nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", domain.ErrStateRestorationFailed, key, err)
	}
	if !res.found {
		return false, nil
	}
	// Decode on the caller's goroutine so out is never touched after return.
	if err := decode(res.plain, out); err != nil {
		return false, fmt.Errorf("%w: decode %s into %T: %w", domain.ErrStateRestorationFailed, key, out, err)
	}
	return true, nil
}

// RestoreValue is the generic form of Store.Restore.
func RestoreValue[T any](ctx context.Context, s domain.StateStore, key domain.Key) (T, bool, error) {
	var v T
	found, err := s.Restore(ctx, key, &v)
	if err != nil || !found {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

// Delete removes the entry for key. Deleting a missing entry is a no-op.
func (s *Store) Delete(ctx context.Context, key domain.Key) (err error) {
	defer s.observe(metrics.OpDelete, time.Now(), &err)

	if err := validateKey(key); err != nil {
		return err
	}
	path := s.Path(key)
	_, err = submit(ctx, s, func() (struct{}, error) {
		return struct{}{}, removeFile(path)
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	s.log.Debug("state deleted", zap.String("key", key.String()))
	return nil
}

// Exists reports whether an entry file exists for key. It does not decrypt.
func (s *Store) Exists(ctx context.Context, key domain.Key) (ok bool, err error) {
	defer s.observe(metrics.OpExists, time.Now(), &err)

	if err := validateKey(key); err != nil {
		return false, err
	}
	path := s.Path(key)
	ok, err = submit(ctx, s, func() (bool, error) {
		fi, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return fi.Mode().IsRegular(), nil
	})
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return ok, nil
}

// ListKeys returns every stored key in directory enumeration order. Callers
// that need a particular order must sort.
func (s *Store) ListKeys(ctx context.Context) (keys []domain.Key, err error) {
	defer s.observe(metrics.OpListKeys, time.Now(), &err)

	keys, err = submit(ctx, s, func() ([]domain.Key, error) {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Key, 0, len(entries))
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			if k, ok := keyFromName(e.Name()); ok {
				out = append(out, k)
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// Close stops accepting operations and waits for in-flight ones to finish.
// It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.inflight.Wait()
	return nil
}

// submit runs fn on the background pool and waits for its result. If ctx ends
// before a worker is free, fn never runs. Once started, fn runs to completion
// even when the caller stops waiting.
func submit[R any](ctx context.Context, s *Store, fn func() (R, error)) (R, error) {
	var zero R

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return zero, fmt.Errorf("%w: %w", domain.ErrInvalidState, errClosed)
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	if err := s.pool.Acquire(ctx, 1); err != nil {
		s.inflight.Done()
		return zero, err
	}

	type outcome struct {
		v   R
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer s.inflight.Done()
		defer s.pool.Release(1)
		v, err := fn()
		done <- outcome{v: v, err: err}
	}()

	select {
	case o := <-done:
		return o.v, o.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (s *Store) observe(op string, start time.Time, err *error) {
	s.metrics.ObserveOp(op, start, *err)
}

// Compile-time assertion that Store implements domain.StateStore.
var _ domain.StateStore = (*Store)(nil)

package store_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"statebox/internal/crypto"
	"statebox/internal/domain"
	"statebox/internal/metrics"
	"statebox/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type snapshot struct {
	Name  string            `json:"name"`
	Count int               `json:"count"`
	Tags  []string          `json:"tags"`
	Attrs map[string]string `json:"attrs"`
}

func newStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	box, err := crypto.NewBox()
	require.NoError(t, err)
	s, err := store.New(t.TempDir(), box, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func demoSession() domain.ChatSession {
	return domain.ChatSession{
		ID:    "s1",
		Title: "Demo",
		Messages: []domain.ChatMessage{
			{ID: "m1", Sender: "user", Content: "hi", Timestamp: t0},
		},
		Created:      t0,
		LastModified: t0,
	}
}

func TestSaveRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	in := snapshot{
		Name:  "layout",
		Count: 3,
		Tags:  []string{"a", "b"},
		Attrs: map[string]string{"theme": "dark"},
	}
	require.NoError(t, s.Save(ctx, "snap", in))

	var out snapshot
	found, err := s.Restore(ctx, "snap", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in, out)

	var str string
	require.NoError(t, s.Save(ctx, "greeting", "hello"))
	found, err = s.Restore(ctx, "greeting", &str)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hello", str)
}

func TestEndToEnd_ChatSession(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	sess := demoSession()
	key := domain.Key(domain.SessionKeyPrefix + "s1")
	require.NoError(t, s.Save(ctx, key, sess))

	got, found, err := store.RestoreValue[domain.ChatSession](ctx, s, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sess, got)

	keys, err := s.ListKeys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, domain.Key("chat_session_s1"))
}

func TestSave_NoPlaintextOnDisk(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	const marker = "MARKER-7f3a9c-do-not-leak"
	sess := demoSession()
	sess.Messages[0].Content = marker
	require.NoError(t, s.Save(ctx, "chat_session_s1", sess))

	raw, err := os.ReadFile(s.Path("chat_session_s1"))
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, []byte(marker)))
	assert.False(t, bytes.Contains(raw, []byte(`"title"`)))
}

func TestRestore_TamperDetected(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Save(ctx, "snap", snapshot{Name: "x"}))

	path := s.Path("snap")
	orig, err := os.ReadFile(path)
	require.NoError(t, err)

	for i := range orig {
		bad := bytes.Clone(orig)
		bad[i] ^= 0x80
		require.NoError(t, os.WriteFile(path, bad, 0o600))

		var out snapshot
		found, err := s.Restore(ctx, "snap", &out)
		require.Error(t, err, "byte %d", i)
		assert.False(t, found)
		assert.ErrorIs(t, err, domain.ErrStateRestorationFailed)
		assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
	}
}

func TestRestore_TruncatedIsInvalidData(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Save(ctx, "snap", snapshot{Name: "x"}))
	require.NoError(t, os.WriteFile(s.Path("snap"), []byte{1, 2, 3}, 0o600))

	var out snapshot
	_, err := s.Restore(ctx, "snap", &out)
	assert.ErrorIs(t, err, domain.ErrStateRestorationFailed)
	assert.ErrorIs(t, err, domain.ErrInvalidData)
}

func TestRestore_AbsentIsNotAnError(t *testing.T) {
	s := newStore(t)

	var out snapshot
	found, err := s.Restore(context.Background(), "never-saved", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, snapshot{}, out)

	_, found, err = store.RestoreValue[domain.WindowFrame](context.Background(), s, "never-saved")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRestore_ShapeMismatchIsAnError(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, "window_frame", domain.WindowFrame{X: 1, Y: 2, Width: 800, Height: 600}))

	var sess domain.ChatSession
	found, err := s.Restore(ctx, "window_frame", &sess)
	require.Error(t, err)
	assert.False(t, found)
	assert.ErrorIs(t, err, domain.ErrStateRestorationFailed)

	require.NoError(t, s.Save(ctx, "name", "just a string"))
	var frame domain.WindowFrame
	_, err = s.Restore(ctx, "name", &frame)
	assert.ErrorIs(t, err, domain.ErrStateRestorationFailed)
}

func TestRestore_NullIntoStructIsAnError(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	var missing *domain.ChatSession
	require.NoError(t, s.Save(ctx, "chat_session_z", missing))

	var sess domain.ChatSession
	found, err := s.Restore(ctx, "chat_session_z", &sess)
	assert.ErrorIs(t, err, domain.ErrStateRestorationFailed)
	assert.False(t, found)

	var n int
	_, err = s.Restore(ctx, "chat_session_z", &n)
	assert.ErrorIs(t, err, domain.ErrStateRestorationFailed)
}

func TestRestore_NullIntoNullableTargets(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Save(ctx, "nothing", nil))

	ptr := &snapshot{Name: "stale"}
	found, err := s.Restore(ctx, "nothing", &ptr)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, ptr)

	tags := []string{"stale"}
	found, err = s.Restore(ctx, "nothing", &tags)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, tags)

	attrs, found, err := store.RestoreValue[map[string]string](ctx, s, "nothing")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, attrs)
}

func TestRestore_NonPointerTarget(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Save(ctx, "snap", snapshot{}))

	_, err := s.Restore(ctx, "snap", snapshot{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	var nilPtr *snapshot
	_, err = s.Restore(ctx, "snap", nilPtr)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSave_Overwrite(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, "snap", snapshot{Count: 1}))
	require.NoError(t, s.Save(ctx, "snap", snapshot{Count: 2}))

	got, found, err := store.RestoreValue[snapshot](ctx, s, "snap")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, got.Count)
}

func TestSave_UnencodableValue(t *testing.T) {
	s := newStore(t)
	err := s.Save(context.Background(), "bad", make(chan int))
	assert.ErrorIs(t, err, domain.ErrStateSavingFailed)

	exists, err := s.Exists(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSave_FileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	s := newStore(t)
	require.NoError(t, s.Save(context.Background(), "snap", snapshot{}))

	fi, err := os.Stat(s.Path("snap"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Delete(ctx, "ghost"))
	require.NoError(t, s.Delete(ctx, "ghost"))

	require.NoError(t, s.Save(ctx, "snap", snapshot{}))
	require.NoError(t, s.Delete(ctx, "snap"))
	require.NoError(t, s.Delete(ctx, "snap"))

	exists, err := s.Exists(ctx, "snap")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	ok, err := s.Exists(ctx, "snap")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "snap", snapshot{}))
	// Exists never decrypts, so a corrupt entry still exists.
	require.NoError(t, os.WriteFile(s.Path("snap"), []byte("junk"), 0o600))

	ok, err = s.Exists(ctx, "snap")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListKeys_OnlyEntries(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, k := range []domain.Key{"b", "a", "chat_session_1"} {
		require.NoError(t, s.Save(ctx, k, snapshot{}))
	}
	dir := s.Dir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.enc.tmp-123"), []byte("partial"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".enc"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.enc"), 0o700))

	keys, err := s.ListKeys(ctx)
	require.NoError(t, err)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	assert.Equal(t, []domain.Key{"a", "b", "chat_session_1"}, keys)
}

func TestListKeys_Empty(t *testing.T) {
	keys, err := newStore(t).ListKeys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestInvalidKeys(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	bad := []domain.Key{"", ".", "..", "a/b", `a\b`, "nul\x00", "x.enc", domain.Key(bytes.Repeat([]byte("k"), 201))}
	for _, k := range bad {
		err := s.Save(ctx, k, snapshot{})
		assert.ErrorIs(t, err, domain.ErrStateSavingFailed, "key %q", k)
		assert.ErrorIs(t, err, domain.ErrInvalidState, "key %q", k)

		var out snapshot
		_, err = s.Restore(ctx, k, &out)
		assert.ErrorIs(t, err, domain.ErrInvalidState, "key %q", k)

		assert.ErrorIs(t, s.Delete(ctx, k), domain.ErrInvalidState, "key %q", k)
		_, err = s.Exists(ctx, k)
		assert.ErrorIs(t, err, domain.ErrInvalidState, "key %q", k)
	}
}

func TestDifferentBoxCannotRead(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, err := crypto.NewBox()
	require.NoError(t, err)
	b, err := crypto.NewBox()
	require.NoError(t, err)

	sa, err := store.New(dir, a)
	require.NoError(t, err)
	defer sa.Close()
	sb, err := store.New(dir, b)
	require.NoError(t, err)
	defer sb.Close()

	require.NoError(t, sa.Save(ctx, "snap", snapshot{Name: "a"}))
	var out snapshot
	_, err = sb.Restore(ctx, "snap", &out)
	assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
}

func TestConcurrentDifferentKeys(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, store.WithWorkers(2))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := domain.Key("k" + string(rune('a'+i%26)) + string(rune('0'+i/26)))
			assert.NoError(t, s.Save(ctx, key, snapshot{Count: i}))
			got, found, err := store.RestoreValue[snapshot](ctx, s, key)
			assert.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, i, got.Count)
		}(i)
	}
	wg.Wait()

	keys, err := s.ListKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 32)
}

// gateCipher blocks Encrypt until release is closed.
type gateCipher struct {
	domain.Cipher
	entered chan struct{}
	release chan struct{}
}

func (g *gateCipher) Encrypt(p []byte) ([]byte, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Cipher.Encrypt(p)
}

func newGateStore(t *testing.T) (*store.Store, *gateCipher) {
	t.Helper()
	box, err := crypto.NewBox()
	require.NoError(t, err)
	g := &gateCipher{Cipher: box, entered: make(chan struct{}, 8), release: make(chan struct{})}
	s, err := store.New(t.TempDir(), g, store.WithWorkers(1))
	require.NoError(t, err)
	return s, g
}

func TestSave_NotIssuedWhenContextEndsWhileQueued(t *testing.T) {
	s, g := newGateStore(t)

	first := make(chan error, 1)
	go func() { first <- s.Save(context.Background(), "first", snapshot{}) }()
	<-g.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Save(ctx, "second", snapshot{})
	assert.ErrorIs(t, err, domain.ErrStateSavingFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(g.release)
	require.NoError(t, <-first)
	require.NoError(t, s.Close())

	_, err = os.Stat(s.Path("second"))
	assert.True(t, os.IsNotExist(err))
}

func TestSave_IssuedRunsToCompletion(t *testing.T) {
	s, g := newGateStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	res := make(chan error, 1)
	go func() { res <- s.Save(ctx, "slow", snapshot{Name: "done"}) }()
	<-g.entered
	cancel()
	assert.ErrorIs(t, <-res, context.Canceled)

	close(g.release)
	require.NoError(t, s.Close())

	box := g.Cipher
	reopened, err := store.New(s.Dir(), box)
	require.NoError(t, err)
	defer reopened.Close()
	got, found, err := store.RestoreValue[snapshot](context.Background(), reopened, "slow")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "done", got.Name)
}

func TestClose_WaitsAndRejects(t *testing.T) {
	s, g := newGateStore(t)

	res := make(chan error, 1)
	go func() { res <- s.Save(context.Background(), "pending", snapshot{}) }()
	<-g.entered

	closed := make(chan struct{})
	go func() {
		_ = s.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a save was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(g.release)
	<-closed
	require.NoError(t, <-res)

	err := s.Save(context.Background(), "late", snapshot{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.NoError(t, s.Close())
}

func TestNew_Validation(t *testing.T) {
	box, err := crypto.NewBox()
	require.NoError(t, err)

	_, err = store.New(t.TempDir(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = store.New(filepath.Join(t.TempDir(), "missing"), box)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = store.New(file, box)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestOpen_PreferredDir(t *testing.T) {
	box, err := crypto.NewBox()
	require.NoError(t, err)

	want := filepath.Join(t.TempDir(), "nested", "state")
	s, err := store.Open(want, box)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, want, s.Dir())
	assert.False(t, s.Degraded())
}

func TestOpen_FallsBackToTempDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("TMPDIR is unix-only")
	}
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	box, err := crypto.NewBox()
	require.NoError(t, err)
	s, err := store.Open(filepath.Join(blocker, "state"), box)
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.Degraded())
	assert.Equal(t, store.FallbackDir(), s.Dir())
	assert.True(t, filepath.HasPrefix(s.Dir(), tmp))

	require.NoError(t, s.Save(context.Background(), "snap", snapshot{Name: "tmp"}))
}

func TestMetricsRecorded(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	s := newStore(t, store.WithMetrics(m))

	require.NoError(t, s.Save(ctx, "snap", snapshot{}))
	var out snapshot
	_, err := s.Restore(ctx, "snap", &out)
	require.NoError(t, err)
	_, err = s.Restore(ctx, "bad/key", &out)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues(metrics.OpSave)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues(metrics.OpRestore)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues(metrics.OpRestore)))
	assert.Greater(t, testutil.ToFloat64(m.Bytes.WithLabelValues("write")), 0.0)
}

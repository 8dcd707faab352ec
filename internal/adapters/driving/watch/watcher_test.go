package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

// recordingSamples implements driving.SampleService, recording StoreFile calls.
type recordingSamples struct {
	mu    sync.Mutex
	calls []string
	tags  []string
	err   error
}

func (r *recordingSamples) StoreFile(_ context.Context, project, path string, tags []string) ([]domain.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.calls = append(r.calls, project+":"+filepath.Base(path))
	r.tags = tags
	return []domain.Sample{{Name: filepath.Base(path), SHA256: "sha-" + filepath.Base(path)}}, nil
}

func (r *recordingSamples) Store(context.Context, string, string, io.Reader, []string) (*domain.Sample, error) {
	return nil, nil
}

func (r *recordingSamples) Get(context.Context, string, string) (*domain.Sample, error) {
	return nil, nil
}

func (r *recordingSamples) Open(context.Context, string, string) (io.ReadCloser, *domain.Sample, error) {
	return nil, nil, nil
}

func (r *recordingSamples) Delete(context.Context, string, string) error { return nil }

func (r *recordingSamples) Find(context.Context, string, domain.SearchQuery) (map[string][]domain.Sample, error) {
	return nil, nil
}

func (r *recordingSamples) AddTags(context.Context, string, domain.SearchQuery, []string) (int, error) {
	return 0, nil
}

func (r *recordingSamples) ListTags(context.Context, string) ([]string, error) { return nil, nil }

func TestWatcher_StoresNewFiles(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	samples := &recordingSamples{}
	stored := make(chan domain.Sample, 4)

	w := New(samples, "intake", []string{"auto"}).WithSettle(50 * time.Millisecond)
	w.OnStored = func(s domain.Sample) { stored <- s }

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx, dir) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drop.exe"), []byte("MZ payload"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.bin"), nil, 0o600))

	select {
	case s := <-stored:
		assert.Equal(t, "drop.exe", s.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("sample was not stored")
	}

	cancel()
	require.NoError(t, <-errCh)

	samples.mu.Lock()
	defer samples.mu.Unlock()
	assert.Equal(t, []string{"intake:drop.exe"}, samples.calls)
	assert.Equal(t, []string{"auto"}, samples.tags)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(&recordingSamples{}, "", nil)

	err := w.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}

func TestWatcher_FlushSkipsUnsettledAndFailed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))

	samples := &recordingSamples{}
	w := New(samples, "", nil).WithSettle(time.Second)
	now := time.Now()

	w.pending[path] = now
	w.flush(context.Background(), now.Add(10*time.Millisecond))
	assert.Empty(t, samples.calls)
	assert.Contains(t, w.pending, path)

	samples.err = domain.ErrInvalidInput
	w.flush(context.Background(), now.Add(2*time.Second))
	assert.Empty(t, samples.calls)
	assert.NotContains(t, w.pending, path)
}

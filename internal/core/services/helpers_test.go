package services

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
)

// --- Test doubles ---

// stubInspector hashes real files and resolves the memory repository's
// synthetic paths to samples it has already inspected.
type stubInspector struct {
	mu    sync.Mutex
	bySHA map[string]domain.Sample
}

func newStubInspector() *stubInspector {
	return &stubInspector{bySHA: make(map[string]domain.Sample)}
}

func (s *stubInspector) Inspect(_ context.Context, path string) (*domain.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sha, ok := strings.CutPrefix(path, "mem://"); ok {
		sample, found := s.bySHA[sha]
		if !found {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return &sample, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	md5sum := md5.Sum(data)
	shasum := sha256.Sum256(data)
	sample := domain.Sample{
		Name:   filepath.Base(path),
		Type:   "application/octet-stream",
		Size:   int64(len(data)),
		MD5:    hex.EncodeToString(md5sum[:]),
		SHA256: hex.EncodeToString(shasum[:]),
	}
	s.bySHA[sample.SHA256] = sample
	return &sample, nil
}

// sessionModule reports which sample the chain session holds.
type sessionModule struct {
	out []domain.Entry
}

func (m *sessionModule) ParseArgs(args []string) error {
	for _, a := range args {
		if a == "--bad" {
			return fmt.Errorf("%w: unknown flag %s", domain.ErrInvalidInput, a)
		}
	}
	return nil
}

func (m *sessionModule) Run(_ context.Context, chain driven.Chain) error {
	if s := chain.Session(); s != nil {
		m.out = append(m.out, domain.InfoEntry("session: "+s.Sample.SHA256))
		return nil
	}
	m.out = append(m.out, domain.InfoEntry("session: none"))
	return nil
}

func (m *sessionModule) Output() []domain.Entry { return m.out }

// failModule emits a partial entry and then fails.
type failModule struct {
	out   []domain.Entry
	panic bool
}

func (m *failModule) ParseArgs([]string) error { return nil }

func (m *failModule) Run(context.Context, driven.Chain) error {
	m.out = append(m.out, domain.InfoEntry("partial"))
	if m.panic {
		panic("module exploded")
	}
	return errors.New("scanner crashed")
}

func (m *failModule) Output() []domain.Entry { return m.out }

// captureModule keeps the chain it ran in and fails.
type captureModule struct {
	chains  *[]driven.Chain
	hadOpen *[]bool
}

func (m captureModule) ParseArgs([]string) error { return nil }

func (m captureModule) Run(_ context.Context, chain driven.Chain) error {
	*m.chains = append(*m.chains, chain)
	*m.hadOpen = append(*m.hadOpen, chain.Session() != nil)
	return errors.New("analysis failed")
}

func (m captureModule) Output() []domain.Entry { return nil }

// slowModule blocks until its context is done.
type slowModule struct{}

func (slowModule) ParseArgs([]string) error { return nil }

func (slowModule) Run(ctx context.Context, _ driven.Chain) error {
	<-ctx.Done()
	return ctx.Err()
}

func (slowModule) Output() []domain.Entry { return nil }

func testModules() []driven.ModuleDescriptor {
	return []driven.ModuleDescriptor{
		{Name: "ok", Description: "report the session", New: func() driven.Module { return &sessionModule{} }},
		{Name: "fail", Description: "always fails", New: func() driven.Module { return &failModule{} }},
		{Name: "boom", Description: "always panics", New: func() driven.Module { return &failModule{panic: true} }},
		{Name: "slow", Description: "waits for cancellation", New: func() driven.Module { return slowModule{} }},
	}
}

// --- Fixtures ---

type fixture struct {
	catalog    *memory.Catalog
	inspector  *stubInspector
	dispatcher *Dispatcher
	dir        string
}

func newFixture(t *testing.T, opts ...DispatcherOption) *fixture {
	t.Helper()
	registry, err := NewModuleRegistry(testModules()...)
	require.NoError(t, err)

	f := &fixture{
		catalog:   memory.NewCatalog(),
		inspector: newStubInspector(),
		dir:       t.TempDir(),
	}
	opts = append([]DispatcherOption{WithIDGenerator(func() string { return "chain-1" })}, opts...)
	f.dispatcher = NewDispatcher(f.catalog, f.catalog, f.inspector, registry, opts...)
	return f
}

// writeFile creates a file under the fixture directory.
func (f *fixture) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// seed stores a file with the given content in a project.
func (f *fixture) seed(t *testing.T, project, name, content string, tags ...string) *domain.Sample {
	t.Helper()
	ctx := context.Background()
	p, err := f.catalog.Create(ctx, project)
	require.NoError(t, err)
	ws, err := f.catalog.Open(ctx, *p)
	require.NoError(t, err)

	in := ingester{inspector: f.inspector}
	sample, err := in.storeFile(ctx, ws, f.writeFile(t, name, content), "", tags)
	require.NoError(t, err)
	return sample
}

func (f *fixture) workspace(t *testing.T, project string) *driven.Workspace {
	t.Helper()
	ctx := context.Background()
	p, err := f.catalog.Get(ctx, project)
	require.NoError(t, err)
	ws, err := f.catalog.Open(ctx, *p)
	require.NoError(t, err)
	return ws
}

func (f *fixture) run(t *testing.T, req domain.ChainRequest) *domain.ChainResult {
	t.Helper()
	result, err := f.dispatcher.Dispatch(context.Background(), req)
	require.NoError(t, err)
	return result
}

// tableOf returns the first table entry of a statement result.
func tableOf(t *testing.T, res domain.StatementResult) domain.Table {
	t.Helper()
	for _, e := range res.Entries {
		if e.Type == domain.EntryTable {
			table, ok := e.Data.(domain.Table)
			require.True(t, ok)
			return table
		}
	}
	t.Fatalf("no table entry in %s result", res.Root)
	return domain.Table{}
}

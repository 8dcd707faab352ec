// Package modtest provides a chain double for module tests.
package modtest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/filesystem"
	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
)

// Chain is a driven.Chain over a single on-disk repository and an
// in-memory database.
type Chain struct {
	ws      *driven.Workspace
	session *domain.SessionSample
}

// NewChain creates a chain with an empty workspace under a temp directory.
func NewChain(t *testing.T) *Chain {
	t.Helper()
	dir := t.TempDir()
	return &Chain{
		ws: &driven.Workspace{
			Project:    domain.Project{Name: domain.DefaultProjectName, Path: dir},
			Repository: filesystem.NewRepository(dir),
			Database:   memory.NewSampleDatabase(),
		},
	}
}

// Store adds content to the workspace and returns the stored sample.
func (c *Chain) Store(t *testing.T, name string, content []byte, ssdeep string) domain.Sample {
	t.Helper()
	ctx := context.Background()
	sum := sha256.Sum256(content)
	sample := domain.Sample{
		Name:   name,
		Size:   int64(len(content)),
		SHA256: hex.EncodeToString(sum[:]),
		SSDeep: ssdeep,
	}

	tmp := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(tmp, content, 0o600))
	f, err := os.Open(tmp)
	require.NoError(t, err)
	defer f.Close()

	_, err = c.ws.Repository.Store(ctx, sample.SHA256, f)
	require.NoError(t, err)
	_, err = c.ws.Database.Add(ctx, &sample)
	require.NoError(t, err)

	stored, err := c.ws.Database.Get(ctx, sample.SHA256)
	require.NoError(t, err)
	return *stored
}

// Open makes a stored sample the session sample.
func (c *Chain) Open(t *testing.T, sample domain.Sample) {
	t.Helper()
	path, err := c.ws.Repository.Path(context.Background(), sample.SHA256)
	require.NoError(t, err)
	c.session = &domain.SessionSample{Path: path, Sample: sample, Stored: true}
}

func (c *Chain) ID() string                   { return "test-chain" }
func (c *Chain) Project() domain.Project      { return c.ws.Project }
func (c *Chain) Workspace() *driven.Workspace { return c.ws }

func (c *Chain) SwitchProject(context.Context, string) error { return nil }

func (c *Chain) Session() *domain.SessionSample { return c.session }

func (c *Chain) OpenSession(_ context.Context, path string) error {
	c.session = &domain.SessionSample{Path: path, Sample: domain.Sample{Name: filepath.Base(path)}}
	return nil
}

func (c *Chain) CloseSession() { c.session = nil }

var _ driven.Chain = (*Chain)(nil)

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/specimen/internal/core/domain"
)

func TestProjectContext_OpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalog()
	pc := NewProjectContext(catalog, catalog)

	_, ok := pc.Active()
	assert.False(t, ok)
	assert.Nil(t, pc.Workspace())

	for _, alias := range []string{"", "default", "../", ""} {
		require.NoError(t, pc.Open(ctx, alias))
	}
	assert.Equal(t, 1, pc.Switches())

	active, ok := pc.Active()
	require.True(t, ok)
	assert.True(t, active.IsDefault())
	require.NotNil(t, pc.Workspace())
	assert.Equal(t, domain.DefaultProjectName, pc.Workspace().Project.Name)
}

func TestProjectContext_Switching(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalog()
	_, err := catalog.Create(ctx, "apt28")
	require.NoError(t, err)
	pc := NewProjectContext(catalog, catalog)

	require.NoError(t, pc.Open(ctx, "default"))
	require.NoError(t, pc.Open(ctx, "apt28"))
	require.NoError(t, pc.Open(ctx, "apt28"))
	require.NoError(t, pc.Open(ctx, "default"))

	assert.Equal(t, 3, pc.Switches())
}

func TestProjectContext_OpenMissing(t *testing.T) {
	catalog := memory.NewCatalog()
	pc := NewProjectContext(catalog, catalog)

	err := pc.Open(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, pc.Switches())
}

func TestProjectContext_OpenInvalidName(t *testing.T) {
	catalog := memory.NewCatalog()
	pc := NewProjectContext(catalog, catalog)

	for _, name := range []string{"all", "a/b", ".hidden"} {
		assert.ErrorIs(t, pc.Open(context.Background(), name), domain.ErrInvalidInput, name)
	}
}

func TestProjectContext_OpenKeepsSession(t *testing.T) {
	f := newFixture(t)
	sample := f.seed(t, "default", "a.bin", "aaa")
	_, err := f.catalog.Create(context.Background(), "other")
	require.NoError(t, err)

	chain := newChainContext("c", f.catalog, f.catalog, f.inspector)
	ctx := context.Background()
	require.NoError(t, chain.SwitchProject(ctx, "default"))
	require.NoError(t, chain.OpenSession(ctx, "mem://"+sample.SHA256))

	require.NoError(t, chain.SwitchProject(ctx, "other"))
	require.NotNil(t, chain.Session())
	assert.Equal(t, sample.SHA256, chain.Session().Sample.SHA256)
}

func TestProjectService(t *testing.T) {
	ctx := context.Background()
	svc := NewProjectService(memory.NewCatalog())

	p, err := svc.Create(ctx, "zeus")
	require.NoError(t, err)
	assert.Equal(t, "zeus", p.Name)

	_, err = svc.Create(ctx, "all")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	projects, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, domain.DefaultProjectName, projects[0].Name)
	assert.Equal(t, "zeus", projects[1].Name)
}

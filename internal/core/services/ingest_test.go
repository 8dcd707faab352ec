package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/specimen/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
)

// rejectingDatabase fails every insert.
type rejectingDatabase struct {
	driven.SampleDatabase
}

func (rejectingDatabase) Add(context.Context, *domain.Sample) (bool, error) {
	return false, errors.New("database is locked")
}

func TestIngest_DatabaseFailureRemovesBinary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	repo := memory.NewRepository()
	ws := &driven.Workspace{
		Project:    domain.Project{Name: domain.DefaultProjectName},
		Repository: repo,
		Database:   rejectingDatabase{SampleDatabase: memory.NewSampleDatabase()},
	}
	in := ingester{inspector: f.inspector}

	_, err := in.storeFile(ctx, ws, f.writeFile(t, "orphan.bin", "MZ orphan"), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")

	sample, err := f.inspector.Inspect(ctx, f.writeFile(t, "again.bin", "MZ orphan"))
	require.NoError(t, err)
	_, err = repo.Path(ctx, sample.SHA256)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngest_DatabaseFailureKeepsExistingBinary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	repo := memory.NewRepository()
	ws := &driven.Workspace{
		Project:    domain.Project{Name: domain.DefaultProjectName},
		Repository: repo,
		Database:   rejectingDatabase{SampleDatabase: memory.NewSampleDatabase()},
	}
	path := f.writeFile(t, "kept.bin", "MZ kept")
	sample, err := f.inspector.Inspect(ctx, path)
	require.NoError(t, err)
	_, err = repo.Store(ctx, sample.SHA256, strings.NewReader("MZ kept"))
	require.NoError(t, err)

	in := ingester{inspector: f.inspector}
	_, err = in.storeFile(ctx, ws, path, "", nil)
	require.Error(t, err)

	_, err = repo.Path(ctx, sample.SHA256)
	assert.NoError(t, err)
}

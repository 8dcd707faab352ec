package filesystem

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

const testSHA = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestRepository_StoreLayout(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepository(dir)
	ctx := context.Background()

	path, err := repo.Store(ctx, testSHA, strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "binaries", "e", "3", "b", "0", testSHA), path)

	got, err := repo.Path(ctx, testSHA)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	rc, err := repo.Open(ctx, testSHA)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload", string(data))
}

func TestRepository_StoreKeepsExisting(t *testing.T) {
	repo := NewRepository(t.TempDir())
	ctx := context.Background()

	_, err := repo.Store(ctx, testSHA, strings.NewReader("first"))
	require.NoError(t, err)
	_, err = repo.Store(ctx, testSHA, strings.NewReader("second"))
	require.NoError(t, err)

	rc, err := repo.Open(ctx, testSHA)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(t.TempDir())
	ctx := context.Background()

	_, err := repo.Store(ctx, testSHA, strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, testSHA))

	_, err = repo.Path(ctx, testSHA)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.Open(ctx, testSHA)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, testSHA), domain.ErrNotFound)
}

func TestRepository_BadAddress(t *testing.T) {
	repo := NewRepository(t.TempDir())
	ctx := context.Background()

	for _, sha := range []string{"", "abc", "../../etc/passwd"} {
		_, err := repo.Store(ctx, sha, strings.NewReader("x"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput, sha)
	}
}

package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/specimen/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "specimen-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func sample(sha, md5, name string, tags ...string) *domain.Sample {
	return &domain.Sample{
		Name:   name,
		Type:   "application/x-dosexec",
		Size:   1024,
		MD5:    md5,
		SHA1:   "sha1-" + sha,
		SHA256: sha,
		SHA512: "sha512-" + sha,
		CRC32:  "1a2b3c4d",
		SSDeep: "24:" + name + ":xyz",
		Tags:   tags,
	}
}

func shas(samples []domain.Sample) []string {
	out := make([]string, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.SHA256)
	}
	return out
}

func TestNewStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.Equal(t, DatabaseFile, filepath.Base(store.Path()))
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_EmptyDir(t *testing.T) {
	_, err := NewStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	_, err = store.Add(ctx, sample("sha-1", "md5-1", "a.exe", "apt"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get(ctx, "sha-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"apt"}, got.Tags)
}

func TestStore_AddAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	in := sample("sha-1", "md5-1", "dropper.exe", "trojan", "apt")
	in.CreatedAt = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	created, err := store.Add(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)

	got, err := store.Get(ctx, "sha-1")
	require.NoError(t, err)
	assert.Equal(t, "dropper.exe", got.Name)
	assert.Equal(t, "application/x-dosexec", got.Type)
	assert.Equal(t, int64(1024), got.Size)
	assert.Equal(t, "md5-1", got.MD5)
	assert.Equal(t, "sha1-sha-1", got.SHA1)
	assert.Equal(t, "sha512-sha-1", got.SHA512)
	assert.Equal(t, "1a2b3c4d", got.CRC32)
	assert.Equal(t, "24:dropper.exe:xyz", got.SSDeep)
	assert.Equal(t, []string{"apt", "trojan"}, got.Tags)
	assert.True(t, in.CreatedAt.Equal(got.CreatedAt))
}

func TestStore_Add_Duplicate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Add(ctx, sample("sha-1", "md5-1", "first.exe", "apt"))
	require.NoError(t, err)

	created, err := store.Add(ctx, sample("sha-1", "md5-1", "second.exe", "other"))
	require.NoError(t, err)
	assert.False(t, created)

	got, err := store.Get(ctx, "sha-1")
	require.NoError(t, err)
	assert.Equal(t, "first.exe", got.Name)
	assert.Equal(t, []string{"apt"}, got.Tags)
}

func TestStore_Add_Invalid(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.Add(context.Background(), &domain.Sample{Name: "no hash"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_Get_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Find(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, s := range []*domain.Sample{
		sample("sha-1", "md5-1", "dropper.exe", "trojan"),
		sample("sha-2", "md5-2", "loader_x.dll", "trojan", "apt"),
		sample("sha-3", "md5-3", "invoice.pdf"),
	} {
		_, err := store.Add(ctx, s)
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		query domain.SearchQuery
		want  []string
	}{
		{"md5", domain.SearchQuery{Key: domain.SearchMD5, Value: "MD5-2"}, []string{"sha-2"}},
		{"sha256", domain.SearchQuery{Key: domain.SearchSHA256, Value: "sha-3"}, []string{"sha-3"}},
		{"ssdeep", domain.SearchQuery{Key: domain.SearchSSDeep, Value: "invoice"}, []string{"sha-3"}},
		{"tag", domain.SearchQuery{Key: domain.SearchTag, Value: "Trojan"}, []string{"sha-1", "sha-2"}},
		{"name wildcard", domain.SearchQuery{Key: domain.SearchName, Value: "*.dll"}, []string{"sha-2"}},
		{"name substring", domain.SearchQuery{Key: domain.SearchName, Value: "DROP"}, []string{"sha-1"}},
		{"name underscore literal", domain.SearchQuery{Key: domain.SearchName, Value: "r_x"}, []string{"sha-2"}},
		{"all", domain.SearchQuery{Key: domain.SearchAll}, []string{"sha-1", "sha-2", "sha-3"}},
		{"latest", domain.SearchQuery{Key: domain.SearchLatest, Value: "2"}, []string{"sha-3", "sha-2"}},
		{"latest default", domain.SearchQuery{Key: domain.SearchLatest}, []string{"sha-3", "sha-2", "sha-1"}},
		{"no match", domain.SearchQuery{Key: domain.SearchTag, Value: "worm"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := store.Find(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, shas(samples))
		})
	}
}

func TestStore_Find_UnknownKey(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.Find(context.Background(), domain.SearchQuery{Key: "colour", Value: "red"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_AddTags_Union(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Add(ctx, sample("sha-1", "md5-1", "a", "apt", "trojan"))
	require.NoError(t, err)
	_, err = store.Add(ctx, sample("sha-2", "md5-2", "b", "trojan"))
	require.NoError(t, err)

	require.NoError(t, store.AddTags(ctx, "sha-1", []string{"trojan", "banker", "banker"}))

	got, err := store.Get(ctx, "sha-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"apt", "banker", "trojan"}, got.Tags)

	other, err := store.Get(ctx, "sha-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"trojan"}, other.Tags)

	tags, err := store.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apt", "banker", "trojan"}, tags)

	assert.ErrorIs(t, store.AddTags(ctx, "missing", []string{"x"}), domain.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Add(ctx, sample("sha-1", "md5-1", "a", "only-here"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "sha-1"))
	assert.ErrorIs(t, store.Delete(ctx, "sha-1"), domain.ErrNotFound)

	_, err = store.Get(ctx, "sha-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tags, err := store.ListTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%drop%", likePattern("drop"))
	assert.Equal(t, "%%.dll%", likePattern("*.dll"))
	assert.Equal(t, `%100\%\_a%`, likePattern("100%_a"))
}

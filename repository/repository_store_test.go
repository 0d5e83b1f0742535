package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RepositoryStore {
	t.Helper()
	store, err := openRepositoryStore(filepath.Join(t.TempDir(), "db", "gitai.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newRepoDir(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	normalized, err := NormalizePath(dir)
	require.NoError(t, err)
	return normalized
}

func TestRepositoryStore_AddAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	dir := newRepoDir(t, "demo")

	repo, err := store.Add(ctx, dir, "", "https://github.com/example/demo.git")
	require.NoError(t, err)
	assert.Equal(t, dir, repo.LocalPath)
	assert.Equal(t, "demo", repo.Name)
	assert.Equal(t, "https://github.com/example/demo.git", repo.RemoteURL)
	assert.False(t, repo.CreatedAt.IsZero())

	again, err := store.Add(ctx, filepath.Join(dir, "..", "demo"), "other-name", "")
	require.NoError(t, err)
	assert.Equal(t, repo.ID, again.ID)
	assert.Equal(t, "demo", again.Name)

	byPath, err := store.GetByPath(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, repo.ID, byPath.ID)

	byName, err := store.Resolve(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, repo.ID, byName.ID)
}

func TestRepositoryStore_AddRejectsFiles(t *testing.T) {
	store := newTestStore(t)
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := store.Add(context.Background(), file, "", "")
	assert.ErrorIs(t, err, ErrNotADirectory)

	_, err = store.Add(context.Background(), filepath.Join(t.TempDir(), "missing"), "", "")
	assert.Error(t, err)
}

func TestRepositoryStore_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return at }
		_, err := store.Add(ctx, newRepoDir(t, name), "", "")
		require.NoError(t, err)
	}

	repositories, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, repositories, 3)
	assert.Equal(t, "third", repositories[0].Name)
	assert.Equal(t, "first", repositories[2].Name)
	assert.Equal(t, base, repositories[2].CreatedAt)
}

func TestRepositoryStore_ResolveAmbiguousName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, newRepoDir(t, "app"), "", "")
	require.NoError(t, err)
	_, err = store.Add(ctx, newRepoDir(t, "app"), "", "")
	require.NoError(t, err)

	_, err = store.Resolve(ctx, "app")
	assert.ErrorIs(t, err, ErrAmbiguousName)
}

func TestRepositoryStore_RemoveAndTouch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	dir := newRepoDir(t, "demo")

	store.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	_, err := store.Add(ctx, dir, "", "")
	require.NoError(t, err)

	touchedAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return touchedAt }
	require.NoError(t, store.Touch(ctx, dir))

	repo, err := store.GetByPath(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, touchedAt, repo.LastAccessed)

	require.NoError(t, store.Remove(ctx, "demo"))
	_, err = store.GetByPath(ctx, dir)
	assert.ErrorIs(t, err, ErrRepositoryNotFound)
	assert.ErrorIs(t, store.Touch(ctx, dir), ErrRepositoryNotFound)
	assert.ErrorIs(t, store.Remove(ctx, "demo"), ErrRepositoryNotFound)
}

func TestRepositoryStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "gitai.db")
	dir := newRepoDir(t, "persisted")

	store, err := OpenRepositoryStore(dbPath, nil)
	require.NoError(t, err)
	_, err = store.Add(context.Background(), dir, "", "")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := OpenRepositoryStore(dbPath, nil)
	require.NoError(t, err)
	defer reopened.Close()

	repositories, err := reopened.List(context.Background())
	require.NoError(t, err)
	require.Len(t, repositories, 1)
	assert.Equal(t, dir, repositories[0].LocalPath)
}

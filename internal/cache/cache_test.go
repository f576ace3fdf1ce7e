package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Summary string `json:"summary"`
}

func setupTestStore(t *testing.T, ttl time.Duration) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "cache"), ttl)
	require.NoError(t, err)
	return store
}

func TestKey(t *testing.T) {
	k1 := Key("github", "o/r", "1")
	k2 := Key("github", "o/r", "1")
	k3 := Key("github", "o/r1", "")
	k4 := Key("github", "o/r", "1", "")

	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1, k4)
}

func TestFileStore_SetGet(t *testing.T) {
	store := setupTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "abc", payload{Summary: "cached"}))

	data, ok, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)

	var got payload
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "cached", got.Summary)
}

func TestFileStore_Miss(t *testing.T) {
	store := setupTestStore(t, time.Hour)

	data, ok, err := store.Get(context.Background(), "missing")

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestFileStore_Expired(t *testing.T) {
	store := setupTestStore(t, time.Hour)
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Set(ctx, "old", payload{Summary: "stale"}))

	store.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, ok, err := store.Get(ctx, "old")

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, store.path("old"))
}

func TestFileStore_ZeroTTLNeverExpires(t *testing.T) {
	store := setupTestStore(t, 0)
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Set(ctx, "k", payload{Summary: "x"}))

	store.now = func() time.Time { return now.Add(24 * 365 * time.Hour) }
	_, ok, err := store.Get(ctx, "k")

	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestFileStore_CorruptEntry(t *testing.T) {
	store := setupTestStore(t, time.Hour)
	require.NoError(t, os.WriteFile(store.path("bad"), []byte("{not json"), 0644))

	_, ok, err := store.Get(context.Background(), "bad")

	assert.Error(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, store.path("bad"))
}

func TestFileStore_CleanExpired(t *testing.T) {
	store := setupTestStore(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "fresh", payload{}))
	require.NoError(t, store.Set(ctx, "stale", payload{}))
	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(store.path("stale"), old, old))

	require.NoError(t, store.CleanExpired())

	assert.FileExists(t, store.path("fresh"))
	assert.NoFileExists(t, store.path("stale"))
}

func TestFileStore_Clear(t *testing.T) {
	store := setupTestStore(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "a", payload{}))
	require.NoError(t, store.Set(ctx, "b", payload{}))

	require.NoError(t, store.Clear(ctx))

	entries, err := os.ReadDir(store.cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.DirExists(t, store.cacheDir)
}

func TestNop(t *testing.T) {
	var s Store = Nop{}
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", payload{}))
	_, ok, err := s.Get(ctx, "k")

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, s.Clear(ctx))
}

package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorageLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()

	store, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files/",
	}, testStorageLogger())
	require.NoError(t, err)

	return store
}

func TestLocalStorage_PutAndGet(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()
	key := SnapshotKey(uuid.New())

	err := store.Put(ctx, key, strings.NewReader("<html>snapshot</html>"), PutOptions{
		ContentType: "text/html; charset=utf-8",
		Overwrite:   true,
		Public:      true,
	})
	require.NoError(t, err)

	reader, info, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "<html>snapshot</html>", string(body))

	assert.Equal(t, key, info.Key)
	assert.Equal(t, int64(len(body)), info.Size)
	assert.Contains(t, info.ContentType, "text/html")
}

func TestLocalStorage_PutWithoutOverwrite(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()
	key := SnapshotKey(uuid.New())

	require.NoError(t, store.Put(ctx, key, strings.NewReader("first"), PutOptions{}))

	err := store.Put(ctx, key, strings.NewReader("second"), PutOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyExists)

	// Overwrite replaces the stored snapshot.
	require.NoError(t, store.Put(ctx, key, strings.NewReader("second"), PutOptions{Overwrite: true}))

	reader, _, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "second", string(body))
}

func TestLocalStorage_GetMissingKey(t *testing.T) {
	store := newTestLocalStorage(t)

	_, _, err := store.Get(context.Background(), "shares/missing.html")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestLocalStorage_DeleteIsIdempotent(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()
	key := SnapshotKey(uuid.New())

	require.NoError(t, store.Put(ctx, key, strings.NewReader("snapshot"), PutOptions{}))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_RejectsTraversalKeys(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	keys := []string{
		"",
		"../outside.html",
		"shares/../../etc/passwd",
		"/etc/passwd",
	}

	for _, key := range keys {
		err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		require.Error(t, err, "key %q", key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}

	// Nothing escaped the base directory.
	outside := filepath.Join(store.basePath, "..", "outside.html")
	_, statErr := os.Stat(outside)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalStorage_URL(t *testing.T) {
	store := newTestLocalStorage(t)

	shareID := uuid.New()
	url, err := store.URL(context.Background(), SnapshotKey(shareID), 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/shares/"+shareID.String()+".html", url)
}

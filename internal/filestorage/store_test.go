package filestorage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"creative_cure_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupLocalStore(t *testing.T) *LocalStore {
	store, err := NewLocalStore(t.TempDir(), "http://localhost:8080/", zap.NewNop())
	require.NoError(t, err, "Failed to create LocalStore")
	return store
}

func TestLocalStore_UploadWritesUnderKey(t *testing.T) {
	store := setupLocalStore(t)
	content := "avatar-bytes"

	url, err := store.Upload(context.Background(), "profileImages/uid-1", strings.NewReader(content), int64(len(content)), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/files/profileImages/uid-1?v="), url)

	got, err := os.ReadFile(filepath.Join(store.Root(), "profileImages", "uid-1"))
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestLocalStore_UploadReplacesExisting(t *testing.T) {
	store := setupLocalStore(t)
	ctx := context.Background()

	_, err := store.Upload(ctx, "profileImages/uid-1", strings.NewReader("first"), 5, "image/png")
	require.NoError(t, err)
	_, err = store.Upload(ctx, "profileImages/uid-1", strings.NewReader("second"), 6, "image/png")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(store.Root(), "profileImages", "uid-1"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(filepath.Join(store.Root(), "profileImages"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store := setupLocalStore(t)

	_, err := store.Upload(context.Background(), "../../etc/passwd", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.Upload(context.Background(), "  ", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLocalStore_CancelledContext(t *testing.T) {
	store := setupLocalStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Upload(ctx, "profileImages/uid-1", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBlobStore_SelectsLocal(t *testing.T) {
	cfg := &config.Config{BlobDriver: config.BlobDriverLocal, LocalStoragePath: t.TempDir()}
	store, err := NewBlobStore(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
}

func TestNewBlobStore_FirebaseWithoutClient(t *testing.T) {
	cfg := &config.Config{BlobDriver: config.BlobDriverFirebase, FirebaseStorageBucket: "b"}
	_, err := NewBlobStore(cfg, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestDownloadURLs(t *testing.T) {
	assert.Equal(t,
		"https://firebasestorage.googleapis.com/v0/b/cc.appspot.com/o/profileImages%2Fuid-1?alt=media&token=tok",
		firebaseDownloadURL("cc.appspot.com", "profileImages/uid-1", "tok"))
	assert.Equal(t, "https://minio.local:9000/avatars/profileImages/uid-1?v=abc",
		objectURL(true, "minio.local:9000", "avatars", "profileImages/uid-1", "abc"))
}

// Package filestorage uploads profile images to the configured blob backend.
package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"creative_cure_backend/internal/config"
	"creative_cure_backend/internal/firebase"

	"go.uber.org/zap"
)

// BlobStore stores an object under key and returns a URL clients can download it from.
// Uploading to an existing key replaces the object.
type BlobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

// NewBlobStore builds the store selected by BLOB_DRIVER.
func NewBlobStore(cfg *config.Config, clients *firebase.Clients, logger *zap.Logger) (BlobStore, error) {
	logger = logger.Named("BlobStore")
	switch cfg.BlobDriver {
	case config.BlobDriverFirebase:
		if clients == nil || clients.Storage == nil {
			return nil, fmt.Errorf("firebase storage client is not initialized")
		}
		bucket, err := clients.Storage.Bucket(cfg.FirebaseStorageBucket)
		if err != nil {
			return nil, fmt.Errorf("open storage bucket %q: %w", cfg.FirebaseStorageBucket, err)
		}
		return NewFirebaseStore(bucket, cfg.FirebaseStorageBucket, logger), nil
	case config.BlobDriverMinio:
		return NewMinioStore(cfg, logger)
	case config.BlobDriverLocal:
		return NewLocalStore(cfg.LocalStoragePath, cfg.PublicBaseURL, logger)
	default:
		return nil, fmt.Errorf("unsupported blob driver %q", cfg.BlobDriver)
	}
}

// cleanKey normalises key to a slash-separated relative path.
func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(key))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

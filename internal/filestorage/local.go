package filestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LocalURLPrefix is the route under which the server exposes the local store.
const LocalURLPrefix = "/files/"

// LocalStore keeps blobs on the local disk, for development setups.
type LocalStore struct {
	storagePath string
	baseURL     string
	logger      *zap.Logger
}

// NewLocalStore creates the storage directory if needed.
func NewLocalStore(storagePath, baseURL string, logger *zap.Logger) (*LocalStore, error) {
	if storagePath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(storagePath, os.ModePerm); err != nil {
		logger.Error("Failed to create storage path directory", zap.String("path", storagePath), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", storagePath, err)
	}
	logger.Info("Local blob store initialized", zap.String("storagePath", storagePath))
	return &LocalStore{
		storagePath: storagePath,
		baseURL:     strings.TrimRight(baseURL, "/"),
		logger:      logger,
	}, nil
}

// Root returns the directory the store writes into.
func (s *LocalStore) Root() string {
	return s.storagePath
}

// Upload writes r to <storagePath>/<key>. The file is written next to its target
// and renamed so readers never see a partial avatar.
func (s *LocalStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	destinationPath := filepath.Join(s.storagePath, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(destinationPath), os.ModePerm); err != nil {
		s.logger.Error("Failed to create directory for blob", zap.String("path", destinationPath), zap.Error(err))
		return "", fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destinationPath), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	written, err := io.Copy(tmp, io.LimitReader(r, size))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		s.logger.Error("Failed to write blob", zap.String("key", rel), zap.Error(err))
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := os.Rename(tmp.Name(), destinationPath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	s.logger.Info("Blob saved", zap.String("path", destinationPath), zap.Int64("bytes", written), zap.String("contentType", contentType))
	return fmt.Sprintf("%s%s%s?v=%d", s.baseURL, LocalURLPrefix, rel, time.Now().UnixNano()), nil
}

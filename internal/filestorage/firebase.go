package filestorage

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// downloadTokenKey is the object metadata entry Firebase Storage reads download tokens from.
const downloadTokenKey = "firebaseStorageDownloadTokens"

// FirebaseStore writes to the project's Firebase Storage bucket.
type FirebaseStore struct {
	bucket     *storage.BucketHandle
	bucketName string
	logger     *zap.Logger
}

func NewFirebaseStore(bucket *storage.BucketHandle, bucketName string, logger *zap.Logger) *FirebaseStore {
	return &FirebaseStore{bucket: bucket, bucketName: bucketName, logger: logger}
}

// Upload stores the object with a fresh download token and returns the tokenised
// download URL, the same URL the Firebase client SDK's getDownloadURL yields.
func (s *FirebaseStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	rel, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()

	w := s.bucket.Object(rel).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{downloadTokenKey: token}
	if _, err := io.Copy(w, io.LimitReader(r, size)); err != nil {
		w.Close()
		s.logger.Error("Failed to stream blob to Firebase Storage", zap.String("key", rel), zap.Error(err))
		return "", fmt.Errorf("upload %s: %w", rel, err)
	}
	if err := w.Close(); err != nil {
		s.logger.Error("Failed to finalize Firebase Storage object", zap.String("key", rel), zap.Error(err))
		return "", fmt.Errorf("upload %s: %w", rel, err)
	}
	return firebaseDownloadURL(s.bucketName, rel, token), nil
}

func firebaseDownloadURL(bucket, key, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(key), token)
}

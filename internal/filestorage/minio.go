package filestorage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"creative_cure_backend/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioStore writes to an S3-compatible bucket.
type MinioStore struct {
	client   *minio.Client
	bucket   string
	endpoint string
	secure   bool
	logger   *zap.Logger
}

// NewMinioStore connects to MINIO_ENDPOINT and creates the bucket when it is missing.
func NewMinioStore(cfg *config.Config, logger *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check minio bucket %q: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create minio bucket %q: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created minio bucket", zap.String("bucket", cfg.MinioBucket))
	}

	logger.Info("Successfully connected to minio", zap.String("endpoint", cfg.MinioEndpoint))
	return &MinioStore{
		client:   client,
		bucket:   cfg.MinioBucket,
		endpoint: cfg.MinioEndpoint,
		secure:   cfg.MinioUseSSL,
		logger:   logger,
	}, nil
}

func (s *MinioStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	rel, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	info, err := s.client.PutObject(ctx, s.bucket, rel, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Error("Failed to create minio object", zap.String("bucket", s.bucket), zap.String("key", rel), zap.Error(err))
		return "", fmt.Errorf("failed to create object in bucket %s: %w", s.bucket, err)
	}
	return objectURL(s.secure, s.endpoint, s.bucket, rel, info.ETag), nil
}

func objectURL(secure bool, endpoint, bucket, key, etag string) string {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	u := fmt.Sprintf("%s://%s/%s/%s", scheme, strings.TrimRight(endpoint, "/"), bucket, key)
	if etag != "" {
		u += "?v=" + etag
	}
	return u
}

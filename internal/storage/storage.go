package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage defines the object-store operations the pipeline needs.
type ObjectStorage interface {
	Download(ctx context.Context, bucket, key, localPath string) error
	Upload(ctx context.Context, localPath, bucket, key, contentType string) error
}

// MinIO implements ObjectStorage against a MinIO or any S3-compatible server.
type MinIO struct {
	client *minio.Client
}

// NewMinIO connects to the object store at endpoint (host:port, no scheme).
func NewMinIO(endpoint, accessKey, secretKey string, secure bool) (*MinIO, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	return &MinIO{client: client}, nil
}

// Download fetches bucket/key into localPath, creating parent directories as
// needed.
func (m *MinIO) Download(ctx context.Context, bucket, key, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	if err := m.client.FGetObject(ctx, bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Upload stores localPath as bucket/key, creating the bucket when missing.
// An empty contentType lets the server pick one.
func (m *MinIO) Upload(ctx context.Context, localPath, bucket, key, contentType string) error {
	if err := m.ensureBucket(ctx, bucket); err != nil {
		return err
	}
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := m.client.FPutObject(ctx, bucket, key, localPath, opts); err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (m *MinIO) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

var _ ObjectStorage = (*MinIO)(nil)

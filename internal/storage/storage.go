// Package storage keeps kiosk selfies out of the database: images are
// uploaded to local disk or an S3-compatible bucket and only the returned
// reference is stored on the punch.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"pdks-backend/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Uploader stores an image under name (without extension) and returns a
// reference to it.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// New builds the uploader selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Uploader, error) {
	if cfg.Driver == "minio" {
		return NewMinioUploader(ctx, cfg)
	}
	return NewLocalUploader(cfg.LocalDir, cfg.PublicBaseURL, cfg.MaxWidth), nil
}

type LocalUploader struct {
	dir      string
	baseURL  string
	maxWidth uint
}

func NewLocalUploader(dir, baseURL string, maxWidth uint) *LocalUploader {
	return &LocalUploader{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/"), maxWidth: maxWidth}
}

func (u *LocalUploader) Upload(_ context.Context, name string, data []byte) (string, error) {
	body, contentType, err := Prepare(data, u.maxWidth)
	if err != nil {
		return "", err
	}

	filename := name + extension(contentType)
	fullPath := filepath.Join(u.dir, filepath.FromSlash(filename))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	if err := os.WriteFile(fullPath, body, 0o644); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return u.baseURL + "/" + filename, nil
}

type MinioUploader struct {
	client     *minio.Client
	bucket     string
	publicBase string
	maxWidth   uint
}

func NewMinioUploader(ctx context.Context, cfg config.StorageConfig) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicBase := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if publicBase == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &MinioUploader{client: client, bucket: cfg.Bucket, publicBase: publicBase, maxWidth: cfg.MaxWidth}, nil
}

func (u *MinioUploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	body, contentType, err := Prepare(data, u.maxWidth)
	if err != nil {
		return "", err
	}

	objectName := path.Clean(name + extension(contentType))
	_, err = u.client.PutObject(ctx, u.bucket, objectName, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	return u.publicBase + "/" + objectName, nil
}

// Package objects stores poster files. MinIO (or any S3-compatible service)
// is used when configured; otherwise files land on local disk.
package objects

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gravadigital/posterjudge-api/internal/config"
	"github.com/gravadigital/posterjudge-api/internal/logger"
)

// AllowedPosterTypes maps accepted content types to file extensions
var AllowedPosterTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
}

// Store saves an object under key and returns the URL it is served from
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New picks the MinIO store when an endpoint is configured, the disk store otherwise
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg.Objects.Endpoint == "" {
		return NewDiskStore("./uploads", "/uploads"), nil
	}
	s, err := NewMinioStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// MinioStore keeps posters in one bucket
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	log       *log.Logger
}

// NewMinioStore connects and creates the bucket when missing
func NewMinioStore(ctx context.Context, cfg *config.Config) (*MinioStore, error) {
	log := logger.Storage("minio")

	client, err := minio.New(cfg.Objects.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Objects.AccessKey, cfg.Objects.SecretKey, ""),
		Secure: cfg.Objects.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Objects.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Objects.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Objects.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Objects.Bucket, err)
		}
		log.Info("Bucket created", "bucket", cfg.Objects.Bucket)
	}

	public := cfg.Objects.PublicURL
	if public == "" {
		scheme := "http"
		if cfg.Objects.UseSSL {
			scheme = "https"
		}
		public = fmt.Sprintf("%s://%s/%s", scheme, cfg.Objects.Endpoint, cfg.Objects.Bucket)
	}

	log.Info("Object storage ready", "endpoint", cfg.Objects.Endpoint, "bucket", cfg.Objects.Bucket)
	return &MinioStore{
		client:    client,
		bucket:    cfg.Objects.Bucket,
		publicURL: strings.TrimSuffix(public, "/"),
		log:       log,
	}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		s.log.Error("Failed to upload object", "key", key, "error", err)
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	s.log.Info("Object uploaded", "key", key, "size", info.Size)
	return s.publicURL + "/" + escapeKey(key), nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// DiskStore writes objects below a directory, served under urlPrefix
type DiskStore struct {
	dir       string
	urlPrefix string
	log       *log.Logger
}

// NewDiskStore creates a disk-backed store
func NewDiskStore(dir, urlPrefix string) *DiskStore {
	return &DiskStore{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		log:       logger.Storage("disk"),
	}
}

// Dir is the directory files are written to
func (s *DiskStore) Dir() string {
	return s.dir
}

// URLPrefix is the path the stored files are served under
func (s *DiskStore) URLPrefix() string {
	return s.urlPrefix
}

func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	target, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	s.log.Info("File stored", "path", target)
	return s.urlPrefix + "/" + escapeKey(key), nil
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *DiskStore) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/helixbio/drshub/common/config"
	"github.com/helixbio/drshub/common/logger"
)

// ErrObjectNotFound signals a storage-side absence where presence was
// required, e.g. presigning a download URL for a key that does not exist.
var ErrObjectNotFound = errors.New("object not found in storage")

// ObjectStorage is the gateway to the S3-compatible storage backend.
// Plain absence checks never fail; only URL issuance treats absence as an
// error.
type ObjectStorage interface {
	Exists(ctx context.Context, bucket, key string) (bool, error)
	PresignedDownloadURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, bucket string) error
}

// MinioStorage implements ObjectStorage against any S3-compatible endpoint.
type MinioStorage struct {
	client *minio.Client
	log    *logger.Logger
}

// New creates a storage gateway from config.
func New(cfg *config.Config, log *logger.Logger) (*MinioStorage, error) {
	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
		Region: cfg.Storage.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	log.Info("object storage client created", "endpoint", cfg.Storage.Endpoint)

	return &MinioStorage{
		client: client,
		log:    log,
	}, nil
}

// Exists reports whether the key exists in the bucket. Absence is a normal
// result, not an error.
func (s *MinioStorage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return false, nil
		}
		s.log.Error("stat object failed", "bucket", bucket, "key", key, "error", err)
		return false, fmt.Errorf("stat object %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

// PresignedDownloadURL returns a time-limited URL granting direct read
// access to one blob. Fails with ErrObjectNotFound if the key is absent.
func (s *MinioStorage) PresignedDownloadURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	exists, err := s.Exists(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
	}

	url, err := s.client.PresignedGetObject(ctx, bucket, key, ttl, nil)
	if err != nil {
		s.log.Error("presign download URL failed", "bucket", bucket, "key", key, "error", err)
		return "", fmt.Errorf("presign download URL for %s/%s: %w", bucket, key, err)
	}

	s.log.Debug("presigned download URL issued", "bucket", bucket, "key", key, "ttl", ttl)
	return url.String(), nil
}

// BucketExists reports whether the bucket exists.
func (s *MinioStorage) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	return exists, nil
}

// CreateBucket creates the bucket if it does not already exist. Used by
// setup and test paths only, never on the request path.
func (s *MinioStorage) CreateBucket(ctx context.Context, bucket string) error {
	exists, err := s.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}

	s.log.Info("bucket created", "bucket", bucket)
	return nil
}

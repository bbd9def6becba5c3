// Package storage stores uploaded media and returns public URLs for it.
package storage

import (
	"context"
	"fmt"
	"io"

	"atelier/internal/config"
)

// BlobStore persists objects under a key and returns a retrievable URL.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.StorageDriver.
func New(cfg *config.Config) (BlobStore, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocalStore(cfg.MediaDir, cfg.MediaURL)
	case "s3":
		return NewS3Store(S3Options{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UseSSL:          cfg.S3UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

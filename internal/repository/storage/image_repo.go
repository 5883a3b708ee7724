package storage

import (
	"context"
	"time"
)

// ImageRepository stores common-space photo variants in a private bucket.
// Readers only ever see short-lived presigned URLs.
type ImageRepository interface {
	Put(ctx context.Context, objectPath string, data []byte, contentType string) error
	DeleteMany(ctx context.Context, objectPaths []string) error
	PresignGet(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

var _ ImageRepository = (*S3PhotoStore)(nil)

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dafibh/habitat/habitat-backend/internal/config"
	"github.com/rs/zerolog/log"
)

// Variants are immutable once written; a new upload gets a new object ID
const photoCacheControl = "private, max-age=86400, immutable"

// S3PhotoStore keeps common-space photos in an S3 (or S3-compatible) bucket
type S3PhotoStore struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// NewS3PhotoStore connects to the configured bucket, creating it if missing
func NewS3PhotoStore(ctx context.Context, s3cfg config.S3Config) (*S3PhotoStore, error) {
	awsCfg, err := loadAWSConfig(ctx, s3cfg)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	store := &S3PhotoStore{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    s3cfg.Bucket,
	}

	exists, err := store.bucketExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(store.bucket)}); err != nil {
			return nil, fmt.Errorf("create photo bucket %s: %w", store.bucket, err)
		}
		log.Info().Str("bucket", store.bucket).Msg("Created photo bucket")
	}

	return store, nil
}

func loadAWSConfig(ctx context.Context, s3cfg config.S3Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s3cfg.Region)}
	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return awsCfg, nil
}

func (s *S3PhotoStore) bucketExists(ctx context.Context) (bool, error) {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noSuchBucket) {
		return false, nil
	}
	return false, fmt.Errorf("check photo bucket %s: %w", s.bucket, err)
}

// Put writes one photo variant
func (s *S3PhotoStore) Put(ctx context.Context, objectPath string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectPath),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String(photoCacheControl),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", objectPath, err)
	}
	return nil
}

// DeleteMany removes the given objects in one batch request. Missing keys
// are not an error.
func (s *S3PhotoStore) DeleteMany(ctx context.Context, objectPaths []string) error {
	if len(objectPaths) == 0 {
		return nil
	}

	ids := make([]types.ObjectIdentifier, len(objectPaths))
	for i, p := range objectPaths {
		ids[i] = types.ObjectIdentifier{Key: aws.String(p)}
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("delete %d objects: %w", len(objectPaths), err)
	}
	if len(out.Errors) > 0 {
		failed := make([]string, len(out.Errors))
		for i, e := range out.Errors {
			failed[i] = aws.ToString(e.Key) + ": " + aws.ToString(e.Message)
		}
		return fmt.Errorf("delete objects: %s", strings.Join(failed, "; "))
	}
	return nil
}

// PresignGet signs a GET for one object
func (s *S3PhotoStore) PresignGet(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectPath),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectPath, err)
	}
	return req.URL, nil
}

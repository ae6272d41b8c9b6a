// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kvstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config configures the S3 backend. Credentials come from the standard
// AWS chain (environment, shared config, instance role).
type S3Config struct {
	Bucket string
	// Region is optional; AWS defaults apply when empty.
	Region string
	// Endpoint targets an S3-compatible service and enables path-style addressing.
	Endpoint string
}

// S3 stores each value as the object "<store>/<key>" in one bucket.
type S3 struct {
	client *s3.Client
	bucket string
	store  string
}

// OpenS3 loads the default AWS configuration and builds an S3 client.
func OpenS3(ctx context.Context, cfg S3Config, storeName string) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 ledger backend requires a bucket")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3(client, cfg.Bucket, storeName), nil
}

// NewS3 wraps an existing client.
func NewS3(client *s3.Client, bucket, storeName string) *S3 {
	return &S3{client: client, bucket: bucket, store: storeName}
}

// ObjectKey returns the object key that holds key.
func (s *S3) ObjectKey(key string) string {
	return path.Join(s.store, key)
}

// GetValue downloads the object for key or returns ErrNotFound.
func (s *S3) GetValue(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.ObjectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("s3 get %s/%s: %w", s.bucket, s.ObjectKey(key), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3 object %s: %w", s.ObjectKey(key), err)
	}
	return data, nil
}

// SetValue uploads value, replacing any previous object.
func (s *S3) SetValue(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.ObjectKey(key)),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s/%s: %w", s.bucket, s.ObjectKey(key), err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *S3) Close() error { return nil }

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

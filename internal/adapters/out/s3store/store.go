// Package s3store keeps uploaded order files in an S3 bucket.
package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// URLPrefix is prepended to object keys to form the relative URLs stored on orders.
const URLPrefix = "/uploads/"

// Config selects the bucket. Empty credentials fall back to the default AWS chain and an
// empty Endpoint to AWS itself.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store implements ports.BlobStore.
type Store struct {
	client putObjectAPI
	bucket string
}

// NewClient builds an S3 client from cfg. A custom endpoint (MinIO, localstack) switches
// to path-style addressing.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func New(client putObjectAPI, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Put uploads body under key. Bodies that cannot seek are buffered first because the
// request signature covers the payload.
func (s *Store) Put(ctx context.Context, key, contentType string, size int64, body io.Reader) (string, error) {
	seekable, ok := body.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", key, err)
		}
		seekable = bytes.NewReader(data)
		size = int64(len(data))
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        seekable,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s to s3: %w", key, err)
	}
	return URLPrefix + key, nil
}

// Package s3storage stores archives in an S3 bucket, or any S3 compatible service.
package s3storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client is the part of the S3 API the storage uses.
//
//go:generate go tool github.com/matryer/moq -out mocks/client.go -pkg mocks . Client
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Storage uploads archives below a key prefix of a bucket.
type S3Storage struct {
	client Client
	bucket string
	prefix string
}

// Option configures NewS3Storage.
type Option func(*options)

type options struct {
	accessKey string
	secretKey string
}

// WithStaticCredentials uses the given keys instead of the default AWS credential chain.
func WithStaticCredentials(accessKey, secretKey string) Option {
	return func(o *options) {
		o.accessKey = accessKey
		o.secretKey = secretKey
	}
}

// NewS3Storage returns a storage for bucket. A non-empty endpoint selects an S3 compatible
// service addressed in path style.
func NewS3Storage(ctx context.Context, region, endpoint, bucket, prefix string, opts ...Option) (*S3Storage, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if o.accessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.accessKey, o.secretKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if endpoint != "" {
			so.BaseEndpoint = aws.String(endpoint)
			so.UsePathStyle = true
		}
	})
	return NewWithClient(client, bucket, prefix), nil
}

// NewWithClient returns a storage using client.
func NewWithClient(client Client, bucket, prefix string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Key returns the object key of dstFilename.
func (s *S3Storage) Key(dstFilename string) string {
	if s.prefix == "" {
		return dstFilename
	}
	return path.Join(s.prefix, dstFilename)
}

// CreateBucket creates the bucket.
func (s *S3Storage) CreateBucket(ctx context.Context) error {
	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// SaveFile uploads archiveFilePath as dstFilename.
func (s *S3Storage) SaveFile(ctx context.Context, archiveFilePath string, dstFilename string) error {
	f, err := os.Open(archiveFilePath) //nolint:gosec // G304: archive path is built by the importer
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", archiveFilePath, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", archiveFilePath, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.Key(dstFilename)),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/gzip"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to bucket %s: %w", dstFilename, s.bucket, err)
	}
	return nil
}

// Package archive mirrors encrypted document blobs to S3-compatible object
// storage (AWS S3 or MinIO). Only ciphertext ever leaves the host; the
// encryption key is not needed here.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNotFound is returned by Get when the archive has no copy of a blob.
var ErrNotFound = errors.New("archive: object not found")

const keyPrefix = "documents/"

// Options configures the S3 client.
type Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Seams for tests.
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

// S3Archive stores blobs under documents/<stored name> in one bucket.
type S3Archive struct {
	client s3API
	bucket string
}

// NewS3Archive builds an archive client with static credentials. A non-empty
// BaseEndpoint switches to path-style addressing, which MinIO requires.
func NewS3Archive(ctx context.Context, opts Options) (*S3Archive, error) {
	if opts.Bucket == "" {
		return nil, errors.New("archive: bucket is required")
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archive{client: client, bucket: opts.Bucket}, nil
}

func objectKey(storedName string) string {
	return keyPrefix + storedName
}

// Put uploads size bytes of ciphertext read from body.
func (a *S3Archive) Put(ctx context.Context, storedName string, body io.Reader, size int64) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(objectKey(storedName)),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("archive put %s: %w", storedName, err)
	}
	return nil
}

// Get returns the archived ciphertext. The caller closes it.
func (a *S3Archive) Get(ctx context.Context, storedName string) (io.ReadCloser, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(objectKey(storedName)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("archive get %s: %w", storedName, err)
	}
	return out.Body, nil
}

// Delete removes the archived copy. Deleting a missing object is not an
// error in S3.
func (a *S3Archive) Delete(ctx context.Context, storedName string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(objectKey(storedName)),
	})
	if err != nil {
		return fmt.Errorf("archive delete %s: %w", storedName, err)
	}
	return nil
}

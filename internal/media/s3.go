package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectAPI is the part of the S3 client used for pruning.
type ObjectAPI interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store removes images from the media bucket. Stored paths are either CDN
// urls (https://assets.example.com/products/1/a.jpg) or relative keys.
type S3Store struct {
	client        ObjectAPI
	bucket        string
	cdnBase       string
	defaultSubdir string
}

// NewS3Store loads the default AWS config for region and returns a store for bucket.
func NewS3Store(ctx context.Context, region, bucket, cdnBase, defaultSubdir string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3StoreWithClient(s3.NewFromConfig(cfg), bucket, cdnBase, defaultSubdir), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client ObjectAPI, bucket, cdnBase, defaultSubdir string) *S3Store {
	return &S3Store{
		client:        client,
		bucket:        bucket,
		cdnBase:       strings.TrimRight(cdnBase, "/"),
		defaultSubdir: defaultSubdir,
	}
}

func (s *S3Store) Name() string { return "s3" }

func (s *S3Store) Resolve(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if s.cdnBase != "" && strings.HasPrefix(raw, s.cdnBase+"/") {
		raw = strings.TrimPrefix(raw, s.cdnBase+"/")
	}
	if prefix := "s3://" + s.bucket + "/"; strings.HasPrefix(raw, prefix) {
		raw = strings.TrimPrefix(raw, prefix)
	}
	// Urls of other hosts are not ours to delete.
	return NormalizeRelative(raw, s.defaultSubdir)
}

func (s *S3Store) Remove(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isMissing(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head s3://%s/%s: %w", s.bucket, key, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete s3://%s/%s: %w", s.bucket, key, err)
	}
	return true, nil
}

func isMissing(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

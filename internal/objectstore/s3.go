package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 writes objects to an AWS S3 bucket.
type S3 struct {
	client *s3.Client
	bucket string
	region string
}

var _ Writer = (*S3)(nil)

// NewS3 loads AWS credentials from the environment and creates an S3 client
// for bucket in region.
func NewS3(ctx context.Context, bucket, region string, optFns ...func(*s3.Options)) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &S3{
		client: s3.NewFromConfig(cfg, optFns...),
		bucket: bucket,
		region: region,
	}, nil
}

func (s *S3) Write(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	slog.Debug("Uploaded object to S3", slog.String("bucket", s.bucket), slog.String("key", key), slog.Int64("size", size))
	return nil
}

// URL returns the virtual-hosted style URL of key.
func (s *S3) URL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

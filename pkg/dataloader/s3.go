package dataloader

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
)

const (
	DefaultS3Bucket = "codeoc-dashboard-prod"
	DefaultS3Region = "eu-north-1"
)

// s3API is the subset of the S3 client the source needs.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Source struct {
	client s3API
	bucket string
}

// S3Options configures the S3 client. Empty static credentials fall back to
// the default AWS credential chain (environment, shared config, instance
// role).
type S3Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func NewS3Source(ctx context.Context, opts S3Options) (*S3Source, error) {
	if opts.Bucket == "" {
		opts.Bucket = DefaultS3Bucket
	}
	if opts.Region == "" {
		opts.Region = DefaultS3Region
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not load aws config")
	}

	return &S3Source{client: s3.NewFromConfig(cfg), bucket: opts.Bucket}, nil
}

func (s *S3Source) Name() string {
	return "s3://" + s.bucket
}

func (s *S3Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, errors.WithMessage(ErrNotFound, key)
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

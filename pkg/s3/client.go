package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Client is the subset of the S3 API the adapter uses.
type Client interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
}

var _ Client = (*awss3.Client)(nil)

// NewClient builds an S3 client talking to endpoint.
func NewClient(ctx context.Context, endpoint string, cfg Config) (*awss3.Client, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	awsOptions := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		awsOptions = append(awsOptions,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretKey,
				"",
			)),
		)
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadConfig, err)
	}

	return awss3.NewFromConfig(awsConfig, func(o *awss3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

// isNotFound reports whether err means the object does not exist.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
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

// classify maps S3 failures onto package sentinels.
func classify(err error, operation string) error {
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return errors.Join(ErrBucketNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return errors.Join(ErrBucketNotFound, err)
		case "AccessDenied", "Forbidden":
			return errors.Join(ErrAccessDenied, err)
		case "SlowDown", "ServiceUnavailable":
			return errors.Join(ErrServiceUnavailable, err)
		}
	}
	return fmt.Errorf("%s: %w", operation, err)
}

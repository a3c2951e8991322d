package service

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/weiwangfds/vidshare/config"
	"github.com/weiwangfds/vidshare/internal/logger"
)

const (
	// s3PartSize and s3Concurrency tune multipart uploads of large files.
	s3PartSize    = 10 * 1024 * 1024
	s3Concurrency = 5
)

// S3Provider stores objects in an AWS S3 (or S3-compatible) bucket.
type S3Provider struct {
	client   *s3.Client
	uploader *manager.Uploader
	config   config.StorageConfig
}

// NewS3Provider builds a client from static credentials when configured,
// otherwise from the default AWS credential chain.
func NewS3Provider(ctx context.Context, cfg config.StorageConfig) (*S3Provider, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = s3PartSize
		u.Concurrency = s3Concurrency
	})

	logger.Infof("[s3] provider ready, bucket=%s region=%s", cfg.Bucket, cfg.Region)
	return &S3Provider{client: client, uploader: uploader, config: cfg}, nil
}

func (p *S3Provider) Name() string { return ProviderS3 }

// UploadFile streams reader to S3 in parts; only one part is held in memory
// per concurrent worker.
func (p *S3Provider) UploadFile(ctx context.Context, objectKey string, reader io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(p.config.Bucket),
		Key:    aws.String(objectKey),
		Body:   reader,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := p.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to upload file to s3: %w", err)
	}
	return nil
}

func (p *S3Provider) DeleteFile(ctx context.Context, objectKey string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.config.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from s3: %w", err)
	}
	return nil
}

// PublicURL uses public_base_url when set (CDN, custom endpoint), otherwise
// the virtual-hosted bucket address.
func (p *S3Provider) PublicURL(objectKey string) string {
	if p.config.PublicBaseURL != "" {
		return joinURL(p.config.PublicBaseURL, objectKey)
	}
	if p.config.Endpoint != "" {
		return joinURL(joinURL(p.config.Endpoint, p.config.Bucket), objectKey)
	}
	return joinURL(fmt.Sprintf("https://%s.s3.amazonaws.com", p.config.Bucket), objectKey)
}

func (p *S3Provider) TestConnection(ctx context.Context) error {
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(p.config.Bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to reach s3 bucket %s: %w", p.config.Bucket, err)
	}
	return nil
}

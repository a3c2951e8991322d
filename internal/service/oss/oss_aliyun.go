package service

import (
	"context"
	"fmt"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/weiwangfds/vidshare/config"
	"github.com/weiwangfds/vidshare/internal/logger"
)

// AliyunOSSProvider stores objects in Aliyun OSS.
type AliyunOSSProvider struct {
	client   *oss.Client
	bucket   *oss.Bucket
	config   config.StorageConfig
	endpoint string
}

// NewAliyunOSSProvider connects to the configured bucket. Without an explicit
// endpoint the public regional endpoint is used.
func NewAliyunOSSProvider(cfg config.StorageConfig) (*AliyunOSSProvider, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://oss-%s.aliyuncs.com", cfg.Region)
	}

	client, err := oss.New(endpoint, cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun oss client: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", cfg.Bucket, err)
	}

	logger.Infof("[aliyun] provider ready, endpoint=%s bucket=%s", endpoint, cfg.Bucket)
	return &AliyunOSSProvider{
		client:   client,
		bucket:   bucket,
		config:   cfg,
		endpoint: endpoint,
	}, nil
}

func (p *AliyunOSSProvider) Name() string { return ProviderAliyun }

func (p *AliyunOSSProvider) UploadFile(ctx context.Context, objectKey string, reader io.Reader, contentType string) error {
	options := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		options = append(options, oss.ContentType(contentType))
	}

	if err := p.bucket.PutObject(objectKey, reader, options...); err != nil {
		return fmt.Errorf("failed to upload file to aliyun oss: %w", err)
	}
	return nil
}

func (p *AliyunOSSProvider) DeleteFile(ctx context.Context, objectKey string) error {
	if err := p.bucket.DeleteObject(objectKey, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete file from aliyun oss: %w", err)
	}
	return nil
}

// PublicURL returns https://<bucket>.oss-<region>.aliyuncs.com/<key> unless a
// public base URL is configured.
func (p *AliyunOSSProvider) PublicURL(objectKey string) string {
	if p.config.PublicBaseURL != "" {
		return joinURL(p.config.PublicBaseURL, objectKey)
	}
	return joinURL(fmt.Sprintf("https://%s.oss-%s.aliyuncs.com", p.config.Bucket, p.config.Region), objectKey)
}

func (p *AliyunOSSProvider) TestConnection(ctx context.Context) error {
	if _, err := p.client.GetBucketInfo(p.config.Bucket); err != nil {
		return fmt.Errorf("failed to reach aliyun bucket %s: %w", p.config.Bucket, err)
	}
	return nil
}

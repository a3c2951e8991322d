package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tencentyun/cos-go-sdk-v5"
	"github.com/weiwangfds/vidshare/config"
)

// TencentCOSProvider stores objects in Tencent Cloud COS.
type TencentCOSProvider struct {
	client    *cos.Client
	config    config.StorageConfig
	bucketURL string
}

func NewTencentCOSProvider(cfg config.StorageConfig) (*TencentCOSProvider, error) {
	bucketURL := fmt.Sprintf("https://%s.cos.%s.myqcloud.com", cfg.Bucket, cfg.Region)
	if cfg.Endpoint != "" {
		bucketURL = cfg.Endpoint
	}

	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bucket URL: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		},
	})

	return &TencentCOSProvider{
		client:    client,
		config:    cfg,
		bucketURL: bucketURL,
	}, nil
}

func (p *TencentCOSProvider) Name() string { return ProviderTencent }

func (p *TencentCOSProvider) UploadFile(ctx context.Context, objectKey string, reader io.Reader, contentType string) error {
	options := &cos.ObjectPutOptions{}
	if contentType != "" {
		options.ObjectPutHeaderOptions = &cos.ObjectPutHeaderOptions{
			ContentType: contentType,
		}
	}

	if _, err := p.client.Object.Put(ctx, objectKey, reader, options); err != nil {
		return fmt.Errorf("failed to upload file to tencent cos: %w", err)
	}
	return nil
}

func (p *TencentCOSProvider) DeleteFile(ctx context.Context, objectKey string) error {
	if _, err := p.client.Object.Delete(ctx, objectKey); err != nil {
		return fmt.Errorf("failed to delete file from tencent cos: %w", err)
	}
	return nil
}

func (p *TencentCOSProvider) PublicURL(objectKey string) string {
	if p.config.PublicBaseURL != "" {
		return joinURL(p.config.PublicBaseURL, objectKey)
	}
	return joinURL(p.bucketURL, objectKey)
}

func (p *TencentCOSProvider) TestConnection(ctx context.Context) error {
	if _, err := p.client.Bucket.Head(ctx); err != nil {
		return fmt.Errorf("failed to reach tencent bucket %s: %w", p.config.Bucket, err)
	}
	return nil
}

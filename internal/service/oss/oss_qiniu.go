package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/qiniu/go-sdk/v7/auth/qbox"
	"github.com/qiniu/go-sdk/v7/storage"
	"github.com/weiwangfds/vidshare/config"
	"github.com/weiwangfds/vidshare/internal/logger"
)

// QiniuKodoProvider stores objects in Qiniu Kodo.
type QiniuKodoProvider struct {
	mac          *qbox.Mac
	bucketName   string
	bucketDomain string
	region       *storage.Region
	config       config.StorageConfig
}

// NewQiniuKodoProvider resolves the bucket region from storage.region when it
// names a known region id, otherwise by querying Qiniu.
func NewQiniuKodoProvider(cfg config.StorageConfig) (*QiniuKodoProvider, error) {
	mac := qbox.NewMac(cfg.AccessKey, cfg.SecretKey)

	var region *storage.Region
	if r, ok := storage.GetRegionByID(storage.RegionID(cfg.Region)); ok {
		region = &r
	} else {
		r, err := storage.GetRegion(cfg.AccessKey, cfg.Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to get qiniu region: %w", err)
		}
		region = r
	}

	bucketDomain := cfg.Endpoint
	if bucketDomain == "" {
		bucketDomain = fmt.Sprintf("%s.%s", cfg.Bucket, region.RsHost)
	}
	if !strings.HasPrefix(bucketDomain, "http://") && !strings.HasPrefix(bucketDomain, "https://") {
		bucketDomain = "https://" + bucketDomain
	}

	logger.Infof("[qiniu] provider ready, bucket=%s domain=%s", cfg.Bucket, bucketDomain)
	return &QiniuKodoProvider{
		mac:          mac,
		bucketName:   cfg.Bucket,
		bucketDomain: bucketDomain,
		region:       region,
		config:       cfg,
	}, nil
}

func (p *QiniuKodoProvider) Name() string { return ProviderQiniu }

func (p *QiniuKodoProvider) bucketManager() *storage.BucketManager {
	return storage.NewBucketManager(p.mac, &storage.Config{
		Region:   p.region,
		UseHTTPS: true,
	})
}

func (p *QiniuKodoProvider) UploadFile(ctx context.Context, objectKey string, reader io.Reader, contentType string) error {
	putPolicy := storage.PutPolicy{
		Scope: fmt.Sprintf("%s:%s", p.bucketName, objectKey),
	}
	upToken := putPolicy.UploadToken(p.mac)

	formUploader := storage.NewFormUploader(&storage.Config{
		Region:        p.region,
		UseHTTPS:      true,
		UseCdnDomains: false,
	})

	ret := storage.PutRet{}
	putExtra := storage.PutExtra{}
	if contentType != "" {
		putExtra.MimeType = contentType
	}

	// size -1: length unknown, the body is streamed
	if err := formUploader.Put(ctx, &ret, upToken, objectKey, reader, -1, &putExtra); err != nil {
		return fmt.Errorf("failed to upload file to qiniu kodo: %w", err)
	}
	return nil
}

func (p *QiniuKodoProvider) DeleteFile(ctx context.Context, objectKey string) error {
	if err := p.bucketManager().Delete(p.bucketName, objectKey); err != nil {
		return fmt.Errorf("failed to delete file from qiniu kodo: %w", err)
	}
	return nil
}

func (p *QiniuKodoProvider) PublicURL(objectKey string) string {
	if p.config.PublicBaseURL != "" {
		return joinURL(p.config.PublicBaseURL, objectKey)
	}
	return joinURL(p.bucketDomain, objectKey)
}

func (p *QiniuKodoProvider) TestConnection(ctx context.Context) error {
	if _, _, _, _, err := p.bucketManager().ListFiles(p.bucketName, "", "", "", 1); err != nil {
		return fmt.Errorf("failed to test qiniu kodo connection: %w", err)
	}
	return nil
}

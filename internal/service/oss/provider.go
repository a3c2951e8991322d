// Package service implements the object stores that hold uploaded video files.
package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/weiwangfds/vidshare/config"
)

// Supported provider names.
const (
	ProviderS3      = "s3"
	ProviderAliyun  = "aliyun"
	ProviderTencent = "tencent"
	ProviderQiniu   = "qiniu"
	ProviderLocal   = "local"
)

// ErrUnsupportedProvider is returned by NewProvider for unknown names.
var ErrUnsupportedProvider = stderrors.New("unsupported storage provider")

// Provider is an object store. Handlers only write on upload and delete on
// admin deletion; reads happen directly from the public URL.
type Provider interface {
	// Name returns the provider identifier, e.g. "s3".
	Name() string

	// UploadFile streams reader to objectKey. reader is consumed once and
	// never buffered whole.
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, contentType string) error

	// DeleteFile removes objectKey. Deleting a missing key is not an error.
	DeleteFile(ctx context.Context, objectKey string) error

	// PublicURL is the address browsers use to fetch objectKey.
	PublicURL(objectKey string) string

	// TestConnection checks credentials and bucket reachability.
	TestConnection(ctx context.Context) error
}

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(ctx context.Context, cfg config.StorageConfig) (Provider, error) {
	switch cfg.Provider {
	case ProviderS3:
		return NewS3Provider(ctx, cfg)
	case ProviderAliyun:
		return NewAliyunOSSProvider(cfg)
	case ProviderTencent:
		return NewTencentCOSProvider(cfg)
	case ProviderQiniu:
		return NewQiniuKodoProvider(cfg)
	case ProviderLocal:
		return NewLocalProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}

// joinURL appends an object key to a base URL, escaping each path segment.
func joinURL(base, objectKey string) string {
	segments := strings.Split(strings.TrimLeft(objectKey, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}

package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiwangfds/vidshare/config"
)

func TestNewProvider_Unsupported(t *testing.T) {
	_, err := NewProvider(context.Background(), config.StorageConfig{Provider: "ftp"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestLocalProvider_RoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	p, err := NewProvider(ctx, config.StorageConfig{Provider: ProviderLocal, LocalPath: root})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, p.Name())
	require.NoError(t, p.TestConnection(ctx))

	key := "videos/abc123.mp4"
	require.NoError(t, p.UploadFile(ctx, key, strings.NewReader("fake video bytes"), "video/mp4"))

	data, err := os.ReadFile(filepath.Join(root, "videos", "abc123.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "fake video bytes", string(data))

	require.NoError(t, p.DeleteFile(ctx, key))
	_, err = os.Stat(filepath.Join(root, "videos", "abc123.mp4"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, p.DeleteFile(ctx, key))
}

func TestLocalProvider_NoTempFilesLeft(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	p, err := NewLocalProvider(config.StorageConfig{LocalPath: root})
	require.NoError(t, err)

	require.NoError(t, p.UploadFile(ctx, "videos/a.mp4", strings.NewReader("a"), ""))

	entries, err := os.ReadDir(filepath.Join(root, "videos"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.mp4", entries[0].Name())
}

func TestLocalProvider_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	p, err := NewLocalProvider(config.StorageConfig{LocalPath: t.TempDir()})
	require.NoError(t, err)

	err = p.UploadFile(ctx, "../../etc/passwd", strings.NewReader("x"), "")
	assert.Error(t, err)
	err = p.DeleteFile(ctx, "../outside")
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	ctx := context.Background()
	key := "videos/abc 1.mp4"

	local, err := NewLocalProvider(config.StorageConfig{LocalPath: t.TempDir()})
	require.NoError(t, err)

	localCDN, err := NewLocalProvider(config.StorageConfig{LocalPath: t.TempDir(), PublicBaseURL: "https://cdn.example.com/"})
	require.NoError(t, err)

	s3p, err := NewS3Provider(ctx, config.StorageConfig{Bucket: "clips", Region: "us-east-1", AccessKey: "ak", SecretKey: "sk"})
	require.NoError(t, err)

	s3Compat, err := NewS3Provider(ctx, config.StorageConfig{Bucket: "clips", Region: "us-east-1", AccessKey: "ak", SecretKey: "sk", Endpoint: "http://minio:9000"})
	require.NoError(t, err)

	aliyun, err := NewAliyunOSSProvider(config.StorageConfig{Bucket: "clips", Region: "cn-hangzhou", AccessKey: "ak", SecretKey: "sk"})
	require.NoError(t, err)

	tencent, err := NewTencentCOSProvider(config.StorageConfig{Bucket: "clips-1250000000", Region: "ap-guangzhou", AccessKey: "ak", SecretKey: "sk"})
	require.NoError(t, err)

	qiniu, err := NewQiniuKodoProvider(config.StorageConfig{Bucket: "clips", Region: "z0", AccessKey: "ak", SecretKey: "sk", Endpoint: "media.example.com"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		provider Provider
		want     string
	}{
		{"local", local, "/media/videos/abc%201.mp4"},
		{"local with base url", localCDN, "https://cdn.example.com/videos/abc%201.mp4"},
		{"s3", s3p, "https://clips.s3.amazonaws.com/videos/abc%201.mp4"},
		{"s3 compatible endpoint", s3Compat, "http://minio:9000/clips/videos/abc%201.mp4"},
		{"aliyun", aliyun, "https://clips.oss-cn-hangzhou.aliyuncs.com/videos/abc%201.mp4"},
		{"tencent", tencent, "https://clips-1250000000.cos.ap-guangzhou.myqcloud.com/videos/abc%201.mp4"},
		{"qiniu", qiniu, "https://media.example.com/videos/abc%201.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.provider.PublicURL(key))
		})
	}
}

func TestProviderNames(t *testing.T) {
	ctx := context.Background()
	cfg := config.StorageConfig{Bucket: "clips", Region: "z0", AccessKey: "ak", SecretKey: "sk", Endpoint: "media.example.com"}

	s3p, err := NewS3Provider(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderS3, s3p.Name())

	qiniu, err := NewQiniuKodoProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderQiniu, qiniu.Name())
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://a.example.com/videos/x.mp4", joinURL("https://a.example.com/", "/videos/x.mp4"))
	assert.Equal(t, "/media/videos/%C3%B1.mp4", joinURL("/media", "videos/ñ.mp4"))
}

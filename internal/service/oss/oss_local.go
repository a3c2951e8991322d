package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/weiwangfds/vidshare/config"
	"github.com/weiwangfds/vidshare/internal/logger"
)

// LocalMediaRoute is where the router serves files of the local provider.
const LocalMediaRoute = "/media"

// LocalProvider keeps objects on the local filesystem. It is meant for
// development and single-node installs.
type LocalProvider struct {
	root   string
	config config.StorageConfig
}

func NewLocalProvider(cfg config.StorageConfig) (*LocalProvider, error) {
	root, err := filepath.Abs(cfg.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("invalid local storage path: %w", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}
	return &LocalProvider{root: root, config: cfg}, nil
}

func (p *LocalProvider) Name() string { return ProviderLocal }

// Root is the directory objects are written under.
func (p *LocalProvider) Root() string { return p.root }

// path maps objectKey into root, rejecting keys that escape it.
func (p *LocalProvider) path(objectKey string) (string, error) {
	full := filepath.Join(p.root, filepath.FromSlash(objectKey))
	if full != p.root && !strings.HasPrefix(full, p.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("object key %q escapes storage root", objectKey)
	}
	return full, nil
}

// UploadFile copies reader into a temp file next to the target and renames
// it into place, so readers never see a partial object.
func (p *LocalProvider) UploadFile(ctx context.Context, objectKey string, reader io.Reader, contentType string) error {
	target, err := p.path(objectKey)
	if err != nil {
		return err
	}
	log := logger.WithFields(logrus.Fields{"object_key": objectKey})

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, reader)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	log.WithField("size", n).Debug("stored object on local filesystem")
	return nil
}

func (p *LocalProvider) DeleteFile(ctx context.Context, objectKey string) error {
	target, err := p.path(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (p *LocalProvider) PublicURL(objectKey string) string {
	base := p.config.PublicBaseURL
	if base == "" {
		base = LocalMediaRoute
	}
	return joinURL(base, objectKey)
}

func (p *LocalProvider) TestConnection(ctx context.Context) error {
	info, err := os.Stat(p.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", p.root)
	}
	return nil
}

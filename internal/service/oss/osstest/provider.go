// Package osstest provides an in-memory object store for tests.
package osstest

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("injected storage failure")

// Provider keeps objects in memory and records every call.
type Provider struct {
	mu sync.Mutex

	Objects     map[string][]byte
	ContentType map[string]string
	Uploads     []string
	Deletes     []string

	FailUpload bool
	FailDelete bool
}

// New returns an empty Provider.
func New() *Provider {
	return &Provider{
		Objects:     make(map[string][]byte),
		ContentType: make(map[string]string),
	}
}

func (p *Provider) Name() string { return "memory" }

func (p *Provider) UploadFile(ctx context.Context, objectKey string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.Uploads = append(p.Uploads, objectKey)
	if p.FailUpload {
		return ErrInjected
	}
	p.Objects[objectKey] = data
	p.ContentType[objectKey] = contentType
	return nil
}

func (p *Provider) DeleteFile(ctx context.Context, objectKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Deletes = append(p.Deletes, objectKey)
	if p.FailDelete {
		return ErrInjected
	}
	delete(p.Objects, objectKey)
	delete(p.ContentType, objectKey)
	return nil
}

func (p *Provider) PublicURL(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

func (p *Provider) TestConnection(ctx context.Context) error { return nil }

// UploadCount returns how many uploads were attempted.
func (p *Provider) UploadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Uploads)
}

// DeleteCount returns how many deletes were attempted.
func (p *Provider) DeleteCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Deletes)
}

// Object returns the stored bytes for key.
func (p *Provider) Object(key string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.Objects[key]
	return data, ok
}

package blobstore

import (
	"context"
	"log/slog"

	"github.com/dncl/intake/internal/core"
)

// ErrNotConfigured signals that no object storage is configured. Callers
// treat it as degraded mode, not a failure: records are still persisted with
// a placeholder in place of the image URL. It is the same value the core
// service matches on, so errors.Is works across the package boundary.
var ErrNotConfigured = core.ErrBlobStoreNotConfigured

type BlobStore interface {
	// Put stores the bytes under a key derived from keyHint and returns the
	// public URL of the stored object.
	Put(ctx context.Context, data []byte, contentType, keyHint string) (string, error)
}

func NewBlobStore(config *core.BlobStore) (BlobStore, error) {
	if config == nil || config.Endpoint == "" || config.Bucket == "" {
		slog.Warn("blob store credentials not set, uploads will be skipped")
		return &disabledBlobStore{}, nil
	}
	return newMinioBlobStore(config)
}

type disabledBlobStore struct{}

func (d *disabledBlobStore) Put(ctx context.Context, data []byte, contentType, keyHint string) (string, error) {
	return "", ErrNotConfigured
}

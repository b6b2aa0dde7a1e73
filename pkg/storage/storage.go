package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/sukunslide/docshare-api/pkg/config"
)

// BlobStore abstracts durable file storage for uploaded documents.
// Save is atomic from the caller's perspective: either the blob is fully
// durable at the returned location or the call fails without leaving a
// partial object. Delete is idempotent; removing an absent key is not an
// error.
type BlobStore interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
}

// New selects a storage backend from configuration.
func New(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Backend {
	case config.StorageBackendS3:
		return NewS3Store(ctx, cfg)
	case config.StorageBackendLocal, "":
		return NewLocalStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

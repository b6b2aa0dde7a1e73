package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore persists blobs on disk under a base directory.
type LocalStore struct {
	baseDir string
}

// NewLocalStore ensures the base directory exists and returns a handle.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Save writes the stream to a temporary file and renames it into place so a
// failed write never leaves a partial blob under the final key.
func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	path := s.resolve(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()           //nolint:errcheck
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write upload stream: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("finalize upload file: %w", err)
	}
	return key, nil
}

// Open returns a read-only stream and the blob size.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	file, err := os.Open(s.resolve(key))
	if err != nil {
		return nil, 0, fmt.Errorf("open upload file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, 0, fmt.Errorf("stat upload file: %w", err)
	}
	return file, info.Size(), nil
}

// Delete removes a stored blob if present.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.resolve(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *LocalStore) Path(key string) string {
	return s.resolve(key)
}

func (s *LocalStore) resolve(key string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(s.baseDir, key)
}

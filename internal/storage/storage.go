// Package storage persists uploaded media blobs and resolves their public URLs.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore writes opaque media blobs under caller-chosen paths.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	PublicURL(path string) string
}

// DiskStore is a BlobStore backed by a local directory, served over the
// public base URL by the HTTP layer's static handler.
type DiskStore struct {
	baseDir string
	baseURL string
}

// NewDiskStore creates a DiskStore rooted at baseDir.
func NewDiskStore(baseDir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DiskStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *DiskStore) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o600)
}

func (s *DiskStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *DiskStore) PublicURL(path string) string {
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}

// BaseDir returns the root directory blobs are written under.
func (s *DiskStore) BaseDir() string {
	return s.baseDir
}

// resolve joins path onto the base directory, rejecting traversal outside it.
func (s *DiskStore) resolve(path string) (string, error) {
	full := filepath.Join(s.baseDir, filepath.FromSlash(path))
	if !strings.HasPrefix(full, filepath.Clean(s.baseDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid blob path: %s", path)
	}
	return full, nil
}

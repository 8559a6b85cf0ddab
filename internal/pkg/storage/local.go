package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage serves files straight from disk in development. "Presigned"
// URLs are plain backend URLs with no expiry.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates a local filesystem storage instance
func NewLocalStorage(basePath, baseURL string) *LocalStorage {
	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// PresignDownload returns a direct URL to the file
func (s *LocalStorage) PresignDownload(ctx context.Context, key string, expires time.Duration) (string, error) {
	_ = ctx
	_ = expires
	return s.baseURL + "/" + strings.TrimLeft(key, "/"), nil
}

// Exists checks if the file exists on disk
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	_ = ctx
	_, err := os.Stat(filepath.Join(s.basePath, filepath.Clean("/"+key)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

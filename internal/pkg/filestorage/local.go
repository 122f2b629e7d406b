package filestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yigit/collegeerp/internal/pkg/logger"
)

// LocalStorage keeps objects on the local filesystem, one directory per bucket.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates a new LocalStorage instance rooted at basePath.
// baseURL is the public prefix objects are served under, e.g.
// "http://localhost:8080/storage".
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// BasePath returns the storage root.
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// Put writes r to bucket/objectPath, creating intermediate directories.
func (ls *LocalStorage) Put(ctx context.Context, bucket, objectPath string, r io.Reader) (*ObjectInfo, error) {
	dstPath, err := ls.resolve(bucket, objectPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create object directory")
		return nil, fmt.Errorf("failed to create object directory: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, r)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy object content")
		_ = os.Remove(dstPath)
		return nil, fmt.Errorf("failed to save object content: %w", err)
	}

	info := &ObjectInfo{
		Bucket:    bucket,
		Path:      cleanObjectPath(objectPath),
		Size:      size,
		PublicURL: ls.PublicURL(bucket, objectPath),
	}
	logger.Info().Str("bucket", bucket).Str("object", info.Path).Int64("size", size).Msg("Object stored")
	return info, nil
}

// Open returns a reader for a stored object.
func (ls *LocalStorage) Open(bucket, objectPath string) (io.ReadCloser, error) {
	p, err := ls.resolve(bucket, objectPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (ls *LocalStorage) Delete(bucket, objectPath string) error {
	p, err := ls.resolve(bucket, objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		logger.Error().Err(err).Str("path", p).Msg("Failed to delete object")
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// PublicURL returns the URL an object is served under.
func (ls *LocalStorage) PublicURL(bucket, objectPath string) string {
	return ls.baseURL + "/" + bucket + "/" + cleanObjectPath(objectPath)
}

func (ls *LocalStorage) resolve(bucket, objectPath string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", ErrInvalidObjectPath
	}
	clean := cleanObjectPath(objectPath)
	if clean == "" || clean == "." || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidObjectPath
	}
	return filepath.Join(ls.basePath, bucket, filepath.FromSlash(clean)), nil
}

func cleanObjectPath(objectPath string) string {
	return strings.TrimPrefix(path.Clean("/"+objectPath), "/")
}

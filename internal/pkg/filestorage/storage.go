package filestorage

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidObjectPath is returned for bucket or object names that would
// escape the storage root.
var ErrInvalidObjectPath = errors.New("invalid object path")

// ErrObjectNotFound is returned when an object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket    string
	Path      string
	Size      int64
	PublicURL string
}

// ObjectStorage stores objects under bucket-relative paths and exposes them
// through public URLs.
type ObjectStorage interface {
	Put(ctx context.Context, bucket, objectPath string, r io.Reader) (*ObjectInfo, error)
	Open(bucket, objectPath string) (io.ReadCloser, error)
	Delete(bucket, objectPath string) error
	PublicURL(bucket, objectPath string) string
}

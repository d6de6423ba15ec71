// Package storage abstracts the blob store holding profile pictures.
package storage

import (
	"context"
	"io"
)

// BlobStore is the interface to the object store. Failures are reported as
// errors, never swallowed; callers decide whether a failure is fatal.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL composes the externally visible location of a stored object.
	URL(key string) string
}

// ContentTypeForExt maps an accepted image extension to its MIME type.
func ContentTypeForExt(ext string) string {
	if ext == "jpg" {
		return "image/jpeg"
	}
	return "image/" + ext
}

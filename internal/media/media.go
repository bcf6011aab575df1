// Package media stores uploaded photos and other binary assets. Domain
// records keep only the blob key; handlers stream the bytes through this
// package.
package media

import (
	"context"
	"io"
)

// Object is a stored blob with its content type.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// Store is the blob storage abstraction. Azure Blob Storage backs
// production; Memory backs tests and local runs.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
}

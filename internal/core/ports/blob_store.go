package ports

import (
	"context"
	"io"
)

// BlobStore keeps uploaded file contents. Deleting an order never deletes blobs.
type BlobStore interface {
	// Put stores the content under key and returns the relative URL clients use to
	// fetch it.
	Put(ctx context.Context, key, contentType string, size int64, body io.Reader) (string, error)
}

// Package blobstore abstracts the object storage behind the media upload
// endpoint.
package blobstore

import (
	"context"
	"io"
)

// PutOptions carries metadata stored alongside an uploaded object.
type PutOptions struct {
	ContentType        string
	ContentDisposition string
	CacheControl       string
}

// Store writes named blobs.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) error
}

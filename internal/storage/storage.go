// Package storage writes accepted payloads to a backend: the local
// filesystem by default, or an S3-compatible bucket.
package storage

import (
	"context"
	"io"
	"time"
)

// PutObjectOptions define optional parameters for writing objects.
// Size should be the exact number of bytes if known, -1 otherwise. Metadata
// becomes S3 user metadata; the local backend has nowhere to keep it.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Storage is implemented by every upload backend. Errors are returned as-is
// to the caller and never retried by the implementation.
type Storage interface {
	// Put writes the full content of r under key, creating whatever
	// intermediate structure the backend needs.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping reports whether the backend is reachable and writable.
	Ping(ctx context.Context) error
}

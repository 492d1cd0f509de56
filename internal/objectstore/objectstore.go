// Package objectstore provides the object storage operations used by the
// exporter: whole-object reads and writes addressed by bucket and key.
package objectstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no object exists at the location.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidURI is returned for locations not of the form scheme://bucket/key.
	ErrInvalidURI = errors.New("invalid storage uri")
)

// PutOptions carries object metadata for Put.
type PutOptions struct {
	ContentType string
}

// Store reads and writes whole objects.
type Store interface {
	// Get returns the object body, or an error wrapping ErrNotFound.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// Put overwrites the object at bucket/key.
	Put(ctx context.Context, bucket, key string, data []byte, opts PutOptions) error
}

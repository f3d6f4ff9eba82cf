package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates no object exists at the given storage key.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving and retrieving binary objects
// at caller-chosen keys. Objects are write-once: the pipeline never rewrites
// an existing key with different content.
type ObjectStore interface {
	Save(ctx context.Context, storageKey string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// ReadAll opens and fully reads the object at storageKey.
func ReadAll(ctx context.Context, store ObjectStore, storageKey string) ([]byte, error) {
	reader, err := store.Open(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotExist = errors.New("stored object does not exist")

// Storage keeps uploaded blobs under slash-separated relative keys such as
// "upload/ab/<id>.jpg". Get returns ErrNotExist for unknown keys and Delete
// treats them as already gone.
type Storage interface {
	Save(ctx context.Context, path string, content io.Reader) error
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

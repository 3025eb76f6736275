package services

import "io"

// BlobStore is the slice of the disk store the services touch.
type BlobStore interface {
	Save(r io.Reader, originalName string) (name string, size int64, err error)
	Remove(name string) error
	RemoveAll() error
}

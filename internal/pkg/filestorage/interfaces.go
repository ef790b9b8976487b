package filestorage

import (
	"errors"
	"io"
	"mime/multipart"
)

// ErrInvalidPath is returned for paths escaping the storage root
var ErrInvalidPath = errors.New("invalid file path")

// ErrNotFound is returned when no file is stored under a key
var ErrNotFound = errors.New("stored file not found")

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveFileWithPath stores the upload under subPath and returns its storage key
	SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (string, error)

	// DeleteFile removes a stored file by key. Missing files are not an error.
	DeleteFile(key string) error

	// Open returns the stored content for key, or ErrNotFound
	Open(key string) (io.ReadSeekCloser, error)

	// URL returns the public URL for a storage key
	URL(key string) string
}

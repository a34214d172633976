package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidPath  = errors.New("invalid file path")
)

// FileStorage keeps generated sheets, exports and master lists.
type FileStorage interface {
	// Save writes the content to path, replacing any existing file, and returns the clean relative path.
	Save(ctx context.Context, path string, content io.Reader) (string, error)

	// Open returns the file for reading. The caller closes it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Remove deletes the file. A missing file is not an error.
	Remove(ctx context.Context, path string) error

	// Exists reports whether a file is stored at path.
	Exists(ctx context.Context, path string) (bool, error)

	// URL is the public download address for path.
	URL(path string) string
}

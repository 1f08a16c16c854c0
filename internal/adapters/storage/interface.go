// Package storage provides the destination for exported result files.
package storage

import (
	"context"
	"io"
)

// Storage defines the storage adapter interface.
type Storage interface {
	// Read reads contents from a path.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write writes contents to a path, creating parent directories.
	Write(ctx context.Context, path string, content []byte) error

	// WriteStream writes from a stream.
	WriteStream(ctx context.Context, path string, reader io.Reader) error

	// Exists checks if a path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// Location returns a human readable location for path.
	Location(path string) string
}

// Config holds storage configuration.
type Config struct {
	// Type is the storage type (filesystem, memory).
	Type string

	// BasePath is the base directory for filesystem storage.
	BasePath string
}

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileStorage implements Storage on an afero filesystem.
type FileStorage struct {
	fs       afero.Fs
	basePath string
}

// NewFilesystemStorage stores files under basePath on the local disk.
func NewFilesystemStorage(basePath string) *FileStorage {
	return &FileStorage{fs: afero.NewOsFs(), basePath: basePath}
}

// NewMemoryStorage keeps files in memory.
func NewMemoryStorage() *FileStorage {
	return &FileStorage{fs: afero.NewMemMapFs(), basePath: "/"}
}

// NewFsStorage wraps an existing afero filesystem.
func NewFsStorage(fs afero.Fs, basePath string) *FileStorage {
	return &FileStorage{fs: fs, basePath: basePath}
}

// resolvePath resolves a path relative to the base path.
func (s *FileStorage) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.basePath, path)
}

// Read reads contents from a path.
func (s *FileStorage) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := afero.ReadFile(s.fs, s.resolvePath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// Write writes contents to a path.
func (s *FileStorage) Write(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := s.resolvePath(path)
	if err := s.fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, fullPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// WriteStream copies reader into path.
func (s *FileStorage) WriteStream(ctx context.Context, path string, reader io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := s.resolvePath(path)
	if err := s.fs.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := s.fs.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return f.Close()
}

// Exists checks if a path exists.
func (s *FileStorage) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return afero.Exists(s.fs, s.resolvePath(path))
}

// Location returns the resolved path.
func (s *FileStorage) Location(path string) string {
	return s.resolvePath(path)
}

// Ensure FileStorage implements Storage interface.
var _ Storage = (*FileStorage)(nil)

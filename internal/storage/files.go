// Package storage persists attachment files on the local filesystem.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tribune/internal/observability"

	"github.com/google/uuid"
)

// FileStore writes and removes attachment files under a single directory.
// Stored names are generated, never caller-controlled, so a record's
// FileName can be joined to the directory without traversal checks beyond
// the sanity guard in Path.
type FileStore struct {
	dir string
}

// NewFileStore creates the upload directory if needed and returns a store.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save streams src to a new file and returns the generated stored name.
// The original extension is kept so downloads get a usable filename.
func (s *FileStore) Save(originalName string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.NewString() + ext

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create attachment file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write attachment file: %w", err)
	}
	return name, nil
}

// Delete removes a stored file. A missing file is not an error: the cascade
// must be able to finish cleaning records even if a file already vanished.
func (s *FileStore) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete attachment file: %w", err)
	}
	observability.AttachmentFilesDeleted.Inc()
	return nil
}

// Exists reports whether a stored file is present on disk.
func (s *FileStore) Exists(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

// Path resolves a stored name to its absolute location inside the store.
func (s *FileStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid stored file name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

package pantry

import (
	"fmt"
	"os"
	"path/filepath"
)

// ImageStore defines the interface for item photo storage
type ImageStore interface {
	// Save stores a photo and returns the path/filename
	Save(filename string, data []byte) (string, error)

	// Get retrieves a photo by path
	Get(path string) ([]byte, error)

	// Delete removes a photo
	Delete(path string) error
}

// LocalImageStore implements the ImageStore interface on the local filesystem
type LocalImageStore struct {
	basePath string
}

// NewLocalImageStore creates a new LocalImageStore instance
func NewLocalImageStore(basePath string) (*LocalImageStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}

	return &LocalImageStore{
		basePath: basePath,
	}, nil
}

// Save stores a photo in local storage
func (l *LocalImageStore) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return filename, nil
}

// Get retrieves a photo from local storage
func (l *LocalImageStore) Get(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, path))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return data, nil
}

// Delete removes a photo from local storage
func (l *LocalImageStore) Delete(path string) error {
	if err := os.Remove(filepath.Join(l.basePath, path)); err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	return nil
}

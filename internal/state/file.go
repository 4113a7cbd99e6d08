// Package state provides the lightweight device-local store used for
// session data: the in-progress cart and the current service context. Two
// backends exist: a JSON-file store for the default single-device setup,
// and Redis for installations that already run one.
package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps each key as a JSON file under a directory. Writes go
// through a temp file plus rename so a crash mid-write never leaves a
// truncated snapshot behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store rooted
// at it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("state: create dir %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Save atomically replaces the value stored under key.
func (s *FileStore) Save(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("state: save %q: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("state: save %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: save %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("state: save %q: %w", key, err)
	}
	return nil
}

// Load returns the stored value, or (nil, nil) when the key was never saved.
func (s *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	raw, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: load %q: %w", key, err)
	}
	return raw, nil
}

// Delete removes the key. Deleting an absent key is a no-op.
func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("state: delete %q: %w", key, err)
	}
	return nil
}

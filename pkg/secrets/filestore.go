package secrets

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/stacklok/acp/pkg/fileutils"
	acperrors "github.com/stacklok/acp/pkg/errors"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

// FileStore persists each key as a file under a single base directory. The
// key is encoded with URL-safe, unpadded base64 so arbitrary keys (including
// ones containing ':') become stable, path-separator-free filenames.
type FileStore struct {
	mu      sync.Mutex
	baseDir string
}

// NewFileStore returns a FileStore rooted at baseDir, creating it with
// owner-only permissions if it does not exist.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := fileutils.EnsureDir(baseDir, dirMode); err != nil {
		return nil, acperrors.NewStorageError("failed to create secret store directory", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func encodeKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

func decodeKey(name string) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(name)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func (s *FileStore) pathFor(key string) string {
	return filepath.Join(s.baseDir, encodeKey(key))
}

// Set implements Store.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fileutils.AtomicWriteFile(s.pathFor(key), value, fileMode); err != nil {
		return acperrors.NewStorageError("failed to write secret", err)
	}
	return nil
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, acperrors.NewStorageError("failed to read secret", err)
	}
	return data, true, nil
}

// Delete implements Store. Deleting an absent key is not an error.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.pathFor(key)); err != nil && !os.IsNotExist(err) {
		return acperrors.NewStorageError("failed to delete secret", err)
	}
	return nil
}

// ListByPrefix implements PrefixLister by scanning the base directory,
// decoding each filename back to its original key, and returning the sorted
// subset beginning with prefix. Used only by migration (C8).
func (s *FileStore) ListByPrefix(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, acperrors.NewStorageError("failed to list secret store directory", err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, ok := decodeKey(entry.Name())
		if !ok {
			continue
		}
		if len(prefix) == 0 || (len(key) >= len(prefix) && key[:len(prefix)] == prefix) {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

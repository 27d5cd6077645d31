// Package filesystem provides a BlobStore that keeps each serialised index
// in its own file under a data directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// Extension is the file suffix for stored indices.
const Extension = ".pqix"

// BlobStore stores blobs as <dir>/<key>.pqix. Writes go to a temporary file
// that is renamed into place, so readers never see a partial index.
type BlobStore struct {
	dir string
}

// NewBlobStore creates the directory if needed and returns a store rooted there.
func NewBlobStore(dir string) (*BlobStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: blob directory is required", domain.ErrConfig)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &BlobStore{dir: dir}, nil
}

// Dir returns the root directory.
func (s *BlobStore) Dir() string {
	return s.dir
}

// Put stores data under key, replacing any previous value.
func (s *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// Rename already moved it on success.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing index blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing index blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing index blob: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming index blob: %w", err)
	}
	return nil
}

// Get returns the data stored under key.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading index blob: %w", err)
	}
	return data, true, nil
}

// Close releases resources.
func (s *BlobStore) Close() error {
	return nil
}

// path maps a key to its file. Keys are hex digests; anything that could
// escape the directory is rejected.
func (s *BlobStore) path(key string) (string, error) {
	if key == "" || strings.ContainsFunc(key, invalidKeyRune) {
		return "", fmt.Errorf("%w: invalid blob key %q", domain.ErrInvalidInput, key)
	}
	return filepath.Join(s.dir, key+Extension), nil
}

func invalidKeyRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
		return false
	default:
		return true
	}
}

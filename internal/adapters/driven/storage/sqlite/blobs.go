package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// blobStore implements driven.BlobStore on the index_blobs table.
type blobStore struct {
	store *Store
}

var _ driven.BlobStore = (*blobStore)(nil)

// Put stores data under key, replacing any previous value.
func (s *blobStore) Put(ctx context.Context, key string, data []byte) error {
	now := time.Now().UTC()
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO index_blobs (key, data, size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			size = excluded.size,
			updated_at = excluded.updated_at
	`, key, data, len(data), now, now)
	if err != nil {
		return fmt.Errorf("saving index blob: %w", err)
	}
	return nil
}

// Get returns the data stored under key.
func (s *blobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := s.store.db.QueryRowContext(ctx, `SELECT data FROM index_blobs WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading index blob: %w", err)
	}
	return data, true, nil
}

// Close is a no-op. The owning Store closes the database.
func (s *blobStore) Close() error {
	return nil
}

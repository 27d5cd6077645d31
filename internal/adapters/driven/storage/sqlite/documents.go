package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// documentRecordStore implements driven.DocumentRecordStore.
type documentRecordStore struct {
	store *Store
}

var _ driven.DocumentRecordStore = (*documentRecordStore)(nil)

// SaveDocument appends an ownership record.
func (s *documentRecordStore) SaveDocument(ctx context.Context, record domain.DocumentRecord) error {
	if record.UploadedAt.IsZero() {
		record.UploadedAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO document_records (user_id, filename, cache_key, uploaded_at)
		VALUES (?, ?, ?, ?)
	`, record.UserID, record.Filename, string(record.Key), record.UploadedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document record: %w", err)
	}
	return nil
}

// ListDocuments returns a user's records, newest first.
func (s *documentRecordStore) ListDocuments(ctx context.Context, userID string) ([]domain.DocumentRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT user_id, filename, cache_key, uploaded_at
		FROM document_records
		WHERE user_id = ?
		ORDER BY uploaded_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing document records: %w", err)
	}
	defer rows.Close()

	var records []domain.DocumentRecord
	for rows.Next() {
		var record domain.DocumentRecord
		var key string
		if err := rows.Scan(&record.UserID, &record.Filename, &key, &record.UploadedAt); err != nil {
			return nil, fmt.Errorf("scanning document record: %w", err)
		}
		record.Key = domain.CacheKey(key)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document records: %w", err)
	}
	return records, nil
}

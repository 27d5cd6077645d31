// Package storage opens the persistence backends selected in settings:
// a blob store for serialised indices plus the document record and chat
// log stores.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/custodia-labs/pdfqa/internal/adapters/driven/storage/filesystem"
	"github.com/custodia-labs/pdfqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pdfqa/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/pdfqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/logger"
)

// IndexDir is the sub-directory of the data directory used by the
// filesystem backend.
const IndexDir = "indices"

// Stores bundles the opened backends.
type Stores struct {
	Blobs     driven.BlobStore
	Documents driven.DocumentRecordStore
	Chat      driven.ChatLogStore

	closers []io.Closer
}

// Open opens the backend named by settings.Backend. Metadata lives in
// SQLite for every durable backend; the memory backend keeps everything
// in process. dataDir is used when settings.Dir is empty.
func Open(ctx context.Context, settings domain.StorageSettings, dataDir string) (*Stores, error) {
	if settings.Dir != "" {
		dataDir = settings.Dir
	}

	if settings.Backend == domain.StorageMemory {
		meta := memory.NewMetadataStore()
		return &Stores{
			Blobs:     memory.NewBlobStore(),
			Documents: meta,
			Chat:      meta,
		}, nil
	}

	db, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}
	s := &Stores{
		Documents: db.DocumentRecordStore(),
		Chat:      db.ChatLogStore(),
		closers:   []io.Closer{db},
	}

	switch settings.Backend {
	case domain.StorageSQLite, "":
		s.Blobs = db.BlobStore()

	case domain.StorageFilesystem:
		blobs, err := filesystem.NewBlobStore(filepath.Join(dataDir, IndexDir))
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Blobs = blobs

	case domain.StorageRedis:
		blobs := redis.NewBlobStore(redis.Options{
			Address:  settings.RedisAddr,
			Password: settings.RedisPassword,
			DB:       settings.RedisDB,
		})
		s.closers = append(s.closers, blobs)
		if err := blobs.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("%w: %w", domain.ErrConfig, err)
		}
		s.Blobs = blobs

	default:
		_ = s.Close()
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrConfig, settings.Backend)
	}

	logger.Debug("storage backend %s at %s", settings.Backend, dataDir)
	return s, nil
}

// Close closes every opened backend.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

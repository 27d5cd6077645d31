package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// HashReaders digests the content of every reader, in order, as one stream.
// Each reader is returned to the offset it had on entry so callers can
// read it again. Reordering the inputs changes the key.
func HashReaders(readers ...io.ReadSeeker) (domain.CacheKey, error) {
	h := sha256.New()
	for i, r := range readers {
		start, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return "", fmt.Errorf("%w: document %d: %w", domain.ErrIO, i, err)
		}
		if _, err := io.Copy(h, r); err != nil {
			return "", fmt.Errorf("%w: document %d: %w", domain.ErrIO, i, err)
		}
		if _, err := r.Seek(start, io.SeekStart); err != nil {
			return "", fmt.Errorf("%w: rewind document %d: %w", domain.ErrIO, i, err)
		}
	}
	return domain.CacheKey(hex.EncodeToString(h.Sum(nil))), nil
}

// HashDocuments digests already-read documents in order.
// It agrees with HashReaders over the same bytes.
func HashDocuments(docs []domain.Document) domain.CacheKey {
	h := sha256.New()
	for _, d := range docs {
		h.Write(d.Data)
	}
	return domain.CacheKey(hex.EncodeToString(h.Sum(nil)))
}

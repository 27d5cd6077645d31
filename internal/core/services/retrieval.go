package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/logger"
)

// RetrievalEngine ranks indexed chunks against a query.
// The embedder must be the one that built the index being searched.
type RetrievalEngine struct {
	embedder driven.EmbeddingService
}

// NewRetrievalEngine creates a retrieval engine.
func NewRetrievalEngine(embedder driven.EmbeddingService) *RetrievalEngine {
	return &RetrievalEngine{embedder: embedder}
}

// Retrieve returns up to k chunks most similar to query, best first.
// Ties keep chunk insertion order. A k above the index size returns
// every chunk.
func (r *RetrievalEngine) Retrieve(ctx context.Context, idx domain.Searcher, query string, k int) (domain.RetrievalResult, error) {
	if idx == nil {
		return nil, domain.ErrNoIndex
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", domain.ErrInvalidInput, k)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrieval, err)
	}

	result, err := idx.Search(vec, k)
	if err != nil {
		return nil, err
	}
	logger.Debug("Retrieved %d of %d chunks for %q", len(result), idx.Len(), query)
	return result, nil
}

package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// Index is an immutable exact nearest-neighbour index over chunk embeddings.
type Index struct {
	model     string
	chunking  domain.ChunkingSettings
	dimension int
	vectors   [][]float32
	chunks    []domain.Chunk
}

// Option configures an index at construction.
type Option func(*Index)

// WithChunking records the chunking settings that produced the chunks.
func WithChunking(s domain.ChunkingSettings) Option {
	return func(x *Index) {
		x.chunking = s
	}
}

// New builds an index over chunks and their embeddings, which must be
// parallel slices. Vectors are copied and normalised to unit length.
// A zero-chunk input, inconsistent dimensionality or a non-finite
// component fails with domain.ErrIndexBuild; no partial index is ever
// returned.
func New(model string, chunks []domain.Chunk, vectors [][]float32, opts ...Option) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", domain.ErrIndexBuild)
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d chunks but %d embeddings", domain.ErrIndexBuild, len(chunks), len(vectors))
	}

	dimension := len(vectors[0])
	if dimension == 0 {
		return nil, fmt.Errorf("%w: embeddings have zero dimensions", domain.ErrIndexBuild)
	}

	normalised := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, expected %d",
				domain.ErrIndexBuild, i, len(v), dimension)
		}
		if !finite(v) {
			return nil, fmt.Errorf("%w: embedding %d has a NaN or infinite component", domain.ErrIndexBuild, i)
		}
		normalised[i] = normalise(v)
	}

	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)

	x := &Index{
		model:     model,
		dimension: dimension,
		vectors:   normalised,
		chunks:    stored,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x, nil
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int {
	return len(x.chunks)
}

// Chunking returns the chunking settings recorded at build time.
func (x *Index) Chunking() domain.ChunkingSettings {
	return x.chunking
}

// Dimension returns the embedding dimensionality.
func (x *Index) Dimension() int {
	return x.dimension
}

// Model returns the embedding model that produced the vectors.
func (x *Index) Model() string {
	return x.model
}

// Chunks returns a copy of the indexed chunks in insertion order.
func (x *Index) Chunks() []domain.Chunk {
	out := make([]domain.Chunk, len(x.chunks))
	copy(out, x.chunks)
	return out
}

// Search returns up to k chunks ordered by decreasing cosine similarity to
// query. Equal scores keep insertion order. If k exceeds the number of
// indexed chunks, all chunks are returned.
func (x *Index) Search(query []float32, k int) (domain.RetrievalResult, error) {
	if x == nil || len(x.vectors) == 0 || len(x.vectors) != len(x.chunks) {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrieval, domain.ErrCorruptIndex)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", domain.ErrInvalidInput, k)
	}
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrRetrieval, len(query), x.dimension)
	}
	if !finite(query) {
		return nil, fmt.Errorf("%w: query embedding has a NaN or infinite component", domain.ErrRetrieval)
	}

	q := normalise(query)
	scores := make([]float64, len(x.vectors))
	for i, v := range x.vectors {
		scores[i] = dot(q, v)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make(domain.RetrievalResult, k)
	for i := 0; i < k; i++ {
		j := order[i]
		results[i] = domain.ScoredChunk{Chunk: x.chunks[j], Score: scores[j]}
	}
	return results, nil
}

// normalise returns a unit-length copy of v. A zero vector stays zero.
func normalise(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

func finite(v []float32) bool {
	for _, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return false
		}
	}
	return true
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

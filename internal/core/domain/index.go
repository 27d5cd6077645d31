package domain

// CacheKey is the hex digest of all document bytes in an upload batch,
// taken in upload order. It is a cache key, never a credential.
type CacheKey string

// String returns the hex representation.
func (k CacheKey) String() string {
	return string(k)
}

// IsZero returns true if the key is unset.
func (k CacheKey) IsZero() bool {
	return k == ""
}

// ScoredChunk is a retrieved chunk with its cosine similarity to the query.
type ScoredChunk struct {
	// Chunk is the matched passage.
	Chunk Chunk

	// Score is the cosine similarity (higher is more similar).
	Score float64
}

// RetrievalResult is an ordered list of chunks, most similar first.
type RetrievalResult []ScoredChunk

// Chunks returns the chunks in rank order.
func (r RetrievalResult) Chunks() []Chunk {
	out := make([]Chunk, len(r))
	for i := range r {
		out[i] = r[i].Chunk
	}
	return out
}

// Searcher is a ready index that answers nearest-neighbour queries.
// Implementations are immutable and safe for concurrent use.
type Searcher interface {
	// Search returns up to k chunks most similar to query.
	Search(query []float32, k int) (RetrievalResult, error)

	// Len returns the number of indexed chunks.
	Len() int

	// Chunks returns the indexed chunks in insertion order.
	Chunks() []Chunk

	// Model returns the embedding model the index was built with.
	Model() string
}

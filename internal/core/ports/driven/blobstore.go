package driven

import "context"

// BlobStore is durable keyed storage for serialised indices.
// Keys are CacheKey hex strings. Entries are never deleted by the core;
// eviction is left to the backing store.
type BlobStore interface {
	// Put stores data under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the data stored under key.
	// The boolean is false, with a nil error, when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Close releases resources.
	Close() error
}

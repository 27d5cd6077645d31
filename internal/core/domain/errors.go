package domain

import "errors"

// Domain errors represent business logic failures.
// Pipeline failures are reported as one of the tagged categories below,
// wrapped with context via fmt.Errorf("%w: ...") and inspected with errors.Is.
var (
	// ErrConfig indicates invalid chunking or pipeline parameters.
	// It is reported before any processing starts.
	ErrConfig = errors.New("invalid configuration")

	// ErrIO indicates unreadable document bytes. The whole batch is aborted.
	ErrIO = errors.New("document read failed")

	// ErrEmbedding indicates the embedding provider failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration indicates the text generation service failed.
	ErrGeneration = errors.New("generation failed")

	// ErrIndexBuild indicates the index could not be built from the input,
	// for example because there are zero chunks.
	ErrIndexBuild = errors.New("index build failed")

	// ErrCacheStore indicates a built index could not be persisted.
	// It is never fatal: the in-memory index stays usable.
	ErrCacheStore = errors.New("index cache store failed")

	// ErrRetrieval indicates a query could not be answered from the index.
	ErrRetrieval = errors.New("retrieval failed")

	// Index integrity errors.

	// ErrCorruptIndex indicates a serialised index failed validation.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrModelMismatch indicates a cached index was built by a different embedding model.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrChunkingMismatch indicates a cached index was chunked with other settings.
	ErrChunkingMismatch = errors.New("chunking settings mismatch")

	// General errors.

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown document type or provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrNoIndex indicates a query was made before any documents were ingested.
	ErrNoIndex = errors.New("no documents indexed")
)

// categories lists the tagged error categories in the order they are matched.
var categories = []struct {
	err     error
	name    string
	message string
}{
	{ErrConfig, "ConfigError", "The chunking settings are invalid. Overlap must be smaller than chunk size."},
	{ErrIO, "IOError", "One of the documents could not be read. Nothing was processed."},
	{ErrEmbedding, "EmbeddingError", "The embedding service failed. Check that it is running and reachable."},
	{ErrGeneration, "GenerationError", "The language model failed to produce an answer."},
	{ErrIndexBuild, "IndexBuildError", "No searchable text was found in the documents."},
	{ErrCacheStore, "CacheStoreError", "The index could not be cached; it will be rebuilt next session."},
	{ErrNoIndex, "RetrievalError", "Upload and process documents before asking questions."},
	{ErrRetrieval, "RetrievalError", "Relevant passages could not be retrieved for the question."},
}

// Describe maps an error to its tagged category and a user-visible message.
// Unknown errors are reported as "Error" with the error text.
func Describe(err error) (category, message string) {
	if err == nil {
		return "", ""
	}
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.name, c.message
		}
	}
	return "Error", err.Error()
}

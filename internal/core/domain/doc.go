// Package domain defines the core business entities for pdfqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Raw bytes of an uploaded file plus its extracted pages
//   - Chunk: A bounded passage of one page, the unit that is indexed and retrieved
//   - CacheKey: Content digest of an upload batch, used to deduplicate index builds
//   - ScoredChunk: A retrieved chunk with its similarity score
//   - ProgressEvent: A {stage, fraction} update emitted while ingesting
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Maps text to fixed-dimension vectors
//   - BlobStore: Durable keyed storage for serialised indices
//   - Extractor: Turns raw document bytes into per-page text
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - GenerationService: Answers prompts. Without it, only retrieval is available.
//   - DocumentRecordStore: Document ownership records.
//   - ChatLogStore: Append-only conversation log.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven

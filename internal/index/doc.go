// Package index provides the immutable vector index that retrieval runs against.
//
// An Index holds one unit-normalised embedding per chunk and answers exact
// top-k cosine similarity queries. It is built once per upload batch and
// never mutated afterwards, so a single *Index may be shared by any number
// of concurrent readers without locking.
//
// # Serialisation
//
// MarshalBinary writes an explicit, versioned little-endian format:
//
//	magic "PQIX" | version u16 | model | dimension u32 | count u32 |
//	count x (source | page u32 | position u32 | content | dimension x f32) |
//	crc32 (IEEE) of all preceding bytes
//
// Strings are length-prefixed (u16 for model and source, u32 for content).
// Unmarshal rejects unknown versions and checksum mismatches with
// domain.ErrCorruptIndex.
package index

package domain

// Document is one uploaded file. It is immutable once read.
type Document struct {
	// Filename is the display name of the upload, used as the chunk source.
	Filename string

	// Data is the raw byte content. It feeds the content hash.
	Data []byte

	// Pages holds the extracted plain text of each page in order.
	// A page with no extractable text is an empty string.
	Pages []string
}

// PageCount returns the number of pages in the document.
func (d Document) PageCount() int {
	return len(d.Pages)
}

// ChunkMetadata identifies where a chunk came from.
type ChunkMetadata struct {
	// Source is the filename of the originating document.
	Source string

	// Page is the 1-based page number.
	Page int
}

// Chunk is a contiguous passage of one page's text.
// Chunks are never empty.
type Chunk struct {
	// Content is the passage text.
	Content string

	// Metadata carries the source document and page.
	Metadata ChunkMetadata

	// Position is the ordinal of the chunk within its page.
	Position int
}

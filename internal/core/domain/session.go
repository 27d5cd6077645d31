package domain

import (
	"io"
	"sync"
)

// Upload is a file handed to the ingestion pipeline.
// Content is rewound after hashing so it can be read again.
type Upload struct {
	Filename string
	Content  io.ReadSeeker
}

// IngestResult summarises one ingestion run.
type IngestResult struct {
	// Key identifies the batch content.
	Key CacheKey

	// Documents lists the filenames in upload order.
	Documents []string

	// Pages and Chunks count what was extracted.
	Pages  int
	Chunks int

	// CacheHit is true when no embedding was computed.
	CacheHit bool

	// Shared is true when a concurrent identical upload produced the index.
	Shared bool

	// StoreErr is set when the index could not be persisted.
	StoreErr error
}

// Session holds the state of one user's working session: the index
// built from their latest upload and the retrieval depth.
//
// A session starts empty. Install replaces its index atomically, so a
// failed ingest leaves the previous index in place. Close releases it.
type Session struct {
	ID     string
	UserID string

	mu        sync.RWMutex
	k         int
	key       CacheKey
	index     Searcher
	documents []string
}

// NewSession creates an empty session. A k below 1 uses DefaultRetrievalK.
func NewSession(id, userID string, k int) *Session {
	if k < 1 {
		k = DefaultRetrievalK
	}
	return &Session{ID: id, UserID: userID, k: k}
}

// K returns the number of chunks retrieved per question.
func (s *Session) K() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.k
}

// SetK changes the retrieval depth. Values below 1 are ignored.
func (s *Session) SetK(k int) {
	if k < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.k = k
}

// Install makes idx the session's active index.
func (s *Session) Install(key CacheKey, idx Searcher, documents []string) {
	docs := make([]string, len(documents))
	copy(docs, documents)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	s.index = idx
	s.documents = docs
}

// Index returns the active index and its key. It is nil before the first
// successful ingest.
func (s *Session) Index() (Searcher, CacheKey) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index, s.key
}

// Ready reports whether the session has an index to query.
func (s *Session) Ready() bool {
	idx, _ := s.Index()
	return idx != nil
}

// Documents returns the filenames behind the active index.
func (s *Session) Documents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.documents))
	copy(out, s.documents)
	return out
}

// Close drops the session's index.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = nil
	s.key = ""
	s.documents = nil
}

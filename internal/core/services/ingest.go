package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driving"
	"github.com/custodia-labs/pdfqa/internal/index"
	"github.com/custodia-labs/pdfqa/internal/indexcache"
	"github.com/custodia-labs/pdfqa/internal/logger"
	"github.com/custodia-labs/pdfqa/internal/postprocessors/chunker"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Overall progress reserved for each phase.
const (
	chunkProgressEnd = 0.8
	embedProgressEnd = 0.99
)

// IngestService runs the document pipeline for a session.
type IngestService struct {
	extractor driven.Extractor
	chunker   *chunker.Processor
	builder   *IndexBuilder
	cache     *indexcache.Cache
	records   driven.DocumentRecordStore
	now       func() time.Time
}

// NewIngestService creates an ingest service.
// records is optional (can be nil).
func NewIngestService(
	extractor driven.Extractor,
	chunker *chunker.Processor,
	builder *IndexBuilder,
	cache *indexcache.Cache,
	records driven.DocumentRecordStore,
) *IngestService {
	return &IngestService{
		extractor: extractor,
		chunker:   chunker,
		builder:   builder,
		cache:     cache,
		records:   records,
		now:       time.Now,
	}
}

// Ingest builds or loads the index for uploads and installs it in sess.
func (s *IngestService) Ingest(
	ctx context.Context,
	sess *domain.Session,
	uploads []domain.Upload,
	events chan<- domain.ProgressEvent,
) (*domain.IngestResult, error) {
	if sess == nil {
		return nil, fmt.Errorf("%w: nil session", domain.ErrInvalidInput)
	}
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: no documents", domain.ErrInvalidInput)
	}
	p := &progress{ctx: ctx, events: events}
	defer p.stop()

	logger.Section("Ingest")
	docs, err := s.extract(ctx, uploads, p)
	if err != nil {
		return nil, err
	}

	chunks, pages, err := s.chunk(ctx, docs, p)
	if err != nil {
		return nil, err
	}

	readers := make([]io.ReadSeeker, len(uploads))
	for i, u := range uploads {
		readers[i] = u.Content
	}
	key, err := HashReaders(readers...)
	if err != nil {
		return nil, err
	}
	p.send(domain.StageHash, chunkProgressEnd, "content key "+shortKey(key))

	p.send(domain.StageCache, chunkProgressEnd, "looking up cached index")
	idx, outcome, err := s.cache.GetOrBuild(ctx, key, func(ctx context.Context) (*index.Index, error) {
		return s.builder.Build(ctx, chunks, func(done, total int) {
			frac := phase(chunkProgressEnd, embedProgressEnd, done, total)
			p.send(domain.StageEmbed, frac, fmt.Sprintf("embedded %d/%d chunks", done, total))
		}, index.WithChunking(s.chunker.Settings()))
	})
	if err != nil {
		return nil, err
	}

	switch {
	case outcome.Hit:
		p.send(domain.StageCache, embedProgressEnd, "reusing cached index")
	case outcome.StoreErr != nil:
		p.send(domain.StageStore, embedProgressEnd, "index not cached: "+outcome.StoreErr.Error())
	default:
		p.send(domain.StageStore, embedProgressEnd, "index cached")
	}

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Filename
	}
	sess.Install(key, idx, names)
	s.record(ctx, sess.UserID, key, names)

	p.send(domain.StageDone, 1, fmt.Sprintf("%d chunks ready", idx.Len()))
	logger.Info("Ingested %d documents (%d pages, %d chunks) as %s", len(docs), pages, idx.Len(), key)

	return &domain.IngestResult{
		Key:       key,
		Documents: names,
		Pages:     pages,
		Chunks:    idx.Len(),
		CacheHit:  outcome.Hit,
		Shared:    outcome.Shared,
		StoreErr:  outcome.StoreErr,
	}, nil
}

// extract reads and parses every upload. Any failure aborts the batch.
func (s *IngestService) extract(ctx context.Context, uploads []domain.Upload, p *progress) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(uploads))
	for _, u := range uploads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if u.Content == nil {
			return nil, fmt.Errorf("%w: %s has no content", domain.ErrIO, u.Filename)
		}
		data, err := readAndRewind(u.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrIO, u.Filename, err)
		}
		pages, err := s.extractor.Extract(ctx, u.Filename, data)
		if err != nil {
			if !errors.Is(err, domain.ErrIO) {
				err = fmt.Errorf("%w: %s: %w", domain.ErrIO, u.Filename, err)
			}
			return nil, err
		}
		logger.Debug("Extracted %d pages from %s", len(pages), u.Filename)
		docs = append(docs, domain.Document{Filename: u.Filename, Data: data, Pages: pages})
		p.send(domain.StageExtract, 0, "read "+u.Filename)
	}
	return docs, nil
}

// chunk splits all pages, reporting progress across the chunking phase.
func (s *IngestService) chunk(ctx context.Context, docs []domain.Document, p *progress) ([]domain.Chunk, int, error) {
	total := 0
	for _, d := range docs {
		total += d.PageCount()
	}

	var chunks []domain.Chunk
	done := 0
	for _, d := range docs {
		for i, text := range d.Pages {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
			chunks = append(chunks, s.chunker.ChunkPage(text, d.Filename, i+1)...)
			done++
			p.send(domain.StageChunk, phase(0, chunkProgressEnd, done, total),
				fmt.Sprintf("%s page %d/%d", d.Filename, i+1, d.PageCount()))
		}
	}
	logger.Debug("Chunked %d pages into %d chunks", total, len(chunks))
	return chunks, total, nil
}

// record stores document ownership. Failures are logged, not returned.
func (s *IngestService) record(ctx context.Context, userID string, key domain.CacheKey, names []string) {
	if s.records == nil {
		return
	}
	now := s.now()
	for _, name := range names {
		rec := domain.DocumentRecord{UserID: userID, Filename: name, Key: key, UploadedAt: now}
		if err := s.records.SaveDocument(ctx, rec); err != nil {
			logger.Warn("record document %s: %v", name, err)
		}
	}
}

func readAndRewind(r io.ReadSeeker) ([]byte, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}
	return data, nil
}

func shortKey(key domain.CacheKey) string {
	s := key.String()
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

// phase maps done of total onto [start, end], never past end.
func phase(start, end float64, done, total int) float64 {
	if total <= 0 {
		return end
	}
	return min(start+float64(done)/float64(total)*(end-start), end)
}

// progress sends events without outliving the request. Embedding workers
// call send concurrently; fractions never decrease and after stop no
// further event is sent.
type progress struct {
	ctx    context.Context
	events chan<- domain.ProgressEvent

	mu      sync.Mutex
	last    float64
	stopped bool
}

func (p *progress) send(stage domain.Stage, fraction float64, msg string) {
	if p.events == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.last = max(p.last, fraction)
	select {
	case p.events <- domain.ProgressEvent{Stage: stage, Fraction: p.last, Message: msg}:
	case <-p.ctx.Done():
	}
}

func (p *progress) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/indexcache"
	"github.com/custodia-labs/pdfqa/internal/postprocessors/chunker"
)

type ingestFixture struct {
	service  *IngestService
	embedder *mockEmbeddingService
	blobs    *memory.BlobStore
	meta     *memory.MetadataStore
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	embedder := newMockEmbedder()
	blobs := memory.NewBlobStore()
	meta := memory.NewMetadataStore()
	proc, err := chunker.New()
	require.NoError(t, err)

	service := NewIngestService(
		mockExtractor{},
		proc,
		NewIndexBuilder(embedder, 2),
		indexcache.New(blobs, embedder.ModelName()),
		meta,
	)
	return &ingestFixture{service: service, embedder: embedder, blobs: blobs, meta: meta}
}

func upload(name, content string) domain.Upload {
	return domain.Upload{Filename: name, Content: bytes.NewReader([]byte(content))}
}

func collect(events chan domain.ProgressEvent) func() []domain.ProgressEvent {
	var mu sync.Mutex
	var got []domain.ProgressEvent
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			mu.Lock()
			got = append(got, ev)
			mu.Unlock()
		}
	}()
	return func() []domain.ProgressEvent {
		close(events)
		<-done
		return got
	}
}

func TestIngest_SixThousandCharacterScenario(t *testing.T) {
	f := newIngestFixture(t)
	sess := domain.NewSession("s1", "alice", 5)
	text := strings.Repeat("cat ", 1500)

	result, err := f.service.Ingest(context.Background(), sess, []domain.Upload{upload("A.pdf", text)}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Chunks)
	assert.Equal(t, 1, result.Pages)
	assert.False(t, result.CacheHit)
	assert.Equal(t, []string{"A.pdf"}, result.Documents)
	assert.Equal(t, 1, f.blobs.Len())

	idx, key := sess.Index()
	require.NotNil(t, idx)
	assert.Equal(t, result.Key, key)
	for _, c := range idx.Chunks() {
		assert.Equal(t, domain.ChunkMetadata{Source: "A.pdf", Page: 1}, c.Metadata)
	}

	hits, err := NewRetrievalEngine(f.embedder).Retrieve(context.Background(), idx, "cat", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestIngest_SecondUploadHitsCache(t *testing.T) {
	f := newIngestFixture(t)
	text := "the cat sat\fthe dog ran"

	first, err := f.service.Ingest(context.Background(), domain.NewSession("s1", "alice", 5),
		[]domain.Upload{upload("A.pdf", text)}, nil)
	require.NoError(t, err)
	embedCalls := f.embedder.calls.Load()

	sess := domain.NewSession("s2", "bob", 5)
	second, err := f.service.Ingest(context.Background(), sess, []domain.Upload{upload("A.pdf", text)}, nil)

	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, embedCalls, f.embedder.calls.Load())
	assert.True(t, sess.Ready())
}

func TestIngest_EmitsProgressInOrder(t *testing.T) {
	f := newIngestFixture(t)
	events := make(chan domain.ProgressEvent)
	wait := collect(events)

	_, err := f.service.Ingest(context.Background(), domain.NewSession("s1", "alice", 5),
		[]domain.Upload{upload("A.pdf", "cat\fdog\ffish")}, events)
	require.NoError(t, err)
	got := wait()

	require.NotEmpty(t, got)
	assert.Equal(t, domain.StageExtract, got[0].Stage)
	assert.Equal(t, domain.StageDone, got[len(got)-1].Stage)
	assert.InDelta(t, 1.0, got[len(got)-1].Fraction, 1e-9)

	stages := map[domain.Stage]bool{}
	for i, ev := range got {
		stages[ev.Stage] = true
		if i > 0 {
			assert.GreaterOrEqual(t, ev.Fraction, got[i-1].Fraction, "progress went backwards at %d", i)
		}
	}
	for _, s := range []domain.Stage{domain.StageChunk, domain.StageHash, domain.StageCache, domain.StageEmbed, domain.StageStore} {
		assert.True(t, stages[s], "missing stage %s", s)
	}
}

func TestIngest_ProgressMonotonicWithConcurrentWorkers(t *testing.T) {
	embedder := newMockEmbedder()
	proc, err := chunker.New()
	require.NoError(t, err)
	service := NewIngestService(
		mockExtractor{},
		proc,
		NewIndexBuilder(embedder, 4),
		indexcache.New(memory.NewBlobStore(), embedder.ModelName()),
		memory.NewMetadataStore(),
	)

	pages := make([]string, 160)
	for i := range pages {
		pages[i] = fmt.Sprintf("the cat sat on page %d", i+1)
	}
	events := make(chan domain.ProgressEvent)
	wait := collect(events)

	result, err := service.Ingest(context.Background(), domain.NewSession("s1", "alice", 5),
		[]domain.Upload{upload("long.pdf", strings.Join(pages, "\f"))}, events)
	require.NoError(t, err)
	assert.Equal(t, 160, result.Chunks)
	got := wait()

	embeds := 0
	for i, ev := range got {
		if ev.Stage == domain.StageEmbed {
			embeds++
		}
		assert.LessOrEqual(t, ev.Fraction, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, ev.Fraction, got[i-1].Fraction, "progress went backwards at %d", i)
		}
	}
	assert.Equal(t, 10, embeds)
}

func TestPhase(t *testing.T) {
	assert.Equal(t, chunkProgressEnd, phase(0, chunkProgressEnd, 3, 3))
	assert.Equal(t, embedProgressEnd, phase(chunkProgressEnd, embedProgressEnd, 7, 7))
	assert.InDelta(t, 0.4, phase(0, chunkProgressEnd, 1, 2), 1e-12)
	assert.Equal(t, chunkProgressEnd, phase(0, chunkProgressEnd, 0, 0))
	assert.Equal(t, 1.0, phase(0, 1, 5, 3))
}

func TestProgress_NeverDecreases(t *testing.T) {
	events := make(chan domain.ProgressEvent, 3)
	p := &progress{ctx: context.Background(), events: events}

	p.send(domain.StageEmbed, 0.9, "later batch")
	p.send(domain.StageEmbed, 0.85, "earlier batch")
	p.send(domain.StageStore, 0.99, "stored")

	assert.Equal(t, 0.9, (<-events).Fraction)
	assert.Equal(t, 0.9, (<-events).Fraction)
	assert.Equal(t, 0.99, (<-events).Fraction)
}

func TestIngest_UnreadableDocumentAbortsBatch(t *testing.T) {
	f := newIngestFixture(t)
	sess := domain.NewSession("s1", "alice", 5)

	_, err := f.service.Ingest(context.Background(), sess, []domain.Upload{
		upload("A.pdf", "cat"),
		upload("bad.pdf", "garbage"),
	}, nil)

	assert.ErrorIs(t, err, domain.ErrIO)
	assert.False(t, sess.Ready())
	assert.Equal(t, int32(0), f.embedder.calls.Load())
	assert.Equal(t, 0, f.blobs.Len())
}

func TestIngest_NoTextIsIndexBuildError(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.service.Ingest(context.Background(), domain.NewSession("s1", "alice", 5),
		[]domain.Upload{upload("A.pdf", "   \f\n")}, nil)

	assert.ErrorIs(t, err, domain.ErrIndexBuild)
	assert.Equal(t, 0, f.blobs.Len())
}

func TestIngest_FailureKeepsPreviousIndex(t *testing.T) {
	f := newIngestFixture(t)
	sess := domain.NewSession("s1", "alice", 5)
	_, err := f.service.Ingest(context.Background(), sess, []domain.Upload{upload("A.pdf", "cat")}, nil)
	require.NoError(t, err)
	_, before := sess.Index()

	f.embedder.failOn = "dog"
	_, err = f.service.Ingest(context.Background(), sess, []domain.Upload{upload("B.pdf", "dog")}, nil)

	assert.ErrorIs(t, err, domain.ErrEmbedding)
	_, after := sess.Index()
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"A.pdf"}, sess.Documents())
}

func TestIngest_RecordsDocuments(t *testing.T) {
	f := newIngestFixture(t)

	result, err := f.service.Ingest(context.Background(), domain.NewSession("s1", "alice", 5),
		[]domain.Upload{upload("A.pdf", "cat"), upload("B.pdf", "dog")}, nil)
	require.NoError(t, err)

	records, err := f.meta.ListDocuments(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "B.pdf", records[0].Filename)
	assert.Equal(t, result.Key, records[0].Key)
}

func TestIngest_RecordFailureIsNotFatal(t *testing.T) {
	f := newIngestFixture(t)
	f.service.records = failingRecordStore{}

	_, err := f.service.Ingest(context.Background(), domain.NewSession("s1", "alice", 5),
		[]domain.Upload{upload("A.pdf", "cat")}, nil)

	assert.NoError(t, err)
}

func TestIngest_UploadsCanBeReadAgain(t *testing.T) {
	f := newIngestFixture(t)
	r := bytes.NewReader([]byte("cat"))

	_, err := f.service.Ingest(context.Background(), domain.NewSession("s1", "alice", 5),
		[]domain.Upload{{Filename: "A.pdf", Content: r}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, r.Len())
}

func TestIngest_InvalidInput(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.service.Ingest(context.Background(), nil, []domain.Upload{upload("A.pdf", "cat")}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.service.Ingest(context.Background(), domain.NewSession("s1", "alice", 5), nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.service.Ingest(context.Background(), domain.NewSession("s1", "alice", 5),
		[]domain.Upload{{Filename: "A.pdf"}}, nil)
	assert.ErrorIs(t, err, domain.ErrIO)
}

func TestIngest_ConcurrentIdenticalUploadsEmbedOnce(t *testing.T) {
	f := newIngestFixture(t)
	text := strings.Repeat("fish ", 2000)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Ingest(context.Background(), domain.NewSession("s", "alice", 5),
				[]domain.Upload{upload("A.pdf", text)}, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// 10000 characters make 5 chunks; each is embedded exactly once.
	assert.Equal(t, int32(5), f.embedder.texts.Load())
}

func TestProgress_NoSendAfterStop(t *testing.T) {
	events := make(chan domain.ProgressEvent, 1)
	p := &progress{ctx: context.Background(), events: events}

	p.send(domain.StageExtract, 0.1, "first")
	p.stop()
	p.send(domain.StageDone, 1, "late")

	require.Len(t, events, 1)
	assert.Equal(t, "first", (<-events).Message)
}

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/graphrag/ai/mock"
	"github.com/poiesic/graphrag/core"
	"github.com/poiesic/graphrag/retry"
	"github.com/poiesic/graphrag/storage"
	"github.com/poiesic/graphrag/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

// countingVectorStore wraps the in-memory store and fails the batch whose
// first chunk index matches failAtChunk.
type countingVectorStore struct {
	*memory.VectorStore
	mu          sync.Mutex
	batchCalls  int
	failAtChunk int
}

func newCountingVectorStore(failAtChunk int) *countingVectorStore {
	return &countingVectorStore{VectorStore: memory.NewVectorStore(), failAtChunk: failAtChunk}
}

func (s *countingVectorStore) InsertBatch(ctx context.Context, records []core.VectorRecord) error {
	s.mu.Lock()
	s.batchCalls++
	s.mu.Unlock()
	if s.failAtChunk >= 0 && len(records) > 0 {
		if idx, ok := records[0].Metadata["chunk_id"].(int); ok && idx == s.failAtChunk {
			return errors.New("simulated storage failure")
		}
	}
	return s.VectorStore.InsertBatch(ctx, records)
}

func (s *countingVectorStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchCalls
}

func newTestPipeline(t *testing.T, vectorStore storage.VectorStore, graphStore storage.GraphStore, extractor *mock.MockExtractor, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithRetryPolicy(fastRetry())}, opts...)
	pipeline, err := NewPipeline(vectorStore, graphStore, mock.NewMockEmbedder(), extractor, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)
	return pipeline
}

func makeChunks(n int) []core.Chunk {
	chunks := make([]core.Chunk, n)
	for i := range chunks {
		chunks[i] = core.Chunk{Text: fmt.Sprintf("chunk %d content", i), SourceID: "test.txt", Index: i}
	}
	return chunks
}

func TestParagraphChunker(t *testing.T) {
	chunker := ParagraphChunker{}

	chunks := chunker.Chunk("first paragraph\n\n\n\nsecond paragraph\n\n   \n\nthird", "doc.txt")
	require.Len(t, chunks, 3)
	assert.Equal(t, "first paragraph", chunks[0].Text)
	assert.Equal(t, "third", chunks[2].Text)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, "doc.txt", chunk.SourceID)
	}

	assert.Empty(t, chunker.Chunk("  \n\n  ", "doc.txt"))
}

func TestProcessChunks_Batching(t *testing.T) {
	vectorStore := newCountingVectorStore(-1)
	graphStore := memory.NewGraphStore(storage.DefaultTraversalPolicy())
	pipeline := newTestPipeline(t, vectorStore, graphStore, mock.NewMockExtractor())

	var events []Event
	err := pipeline.ProcessChunks(context.Background(), "test.txt", makeChunks(25), func(e Event) {
		events = append(events, e)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, vectorStore.calls(), "25 chunks at batch size 10 is 3 batches")

	count, err := vectorStore.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 25, count)

	// 3 batch-start events and 3 completion events.
	var starts, completions int
	for _, event := range events {
		if event.BatchCompleted {
			completions++
			assert.Positive(t, event.ChunksPerSecond)
		} else if event.Err == nil {
			starts++
			assert.Equal(t, 25, event.TotalChunks)
			assert.Equal(t, 3, event.TotalBatches)
		}
	}
	assert.Equal(t, 3, starts)
	assert.Equal(t, 3, completions)
}

func TestProcessChunks_BatchFailureAborts(t *testing.T) {
	// Second batch starts at chunk index 10.
	vectorStore := newCountingVectorStore(10)
	graphStore := memory.NewGraphStore(storage.DefaultTraversalPolicy())
	pipeline := newTestPipeline(t, vectorStore, graphStore, mock.NewMockExtractor())

	var errorEvents []Event
	err := pipeline.ProcessChunks(context.Background(), "test.txt", makeChunks(25), func(e Event) {
		if e.Err != nil {
			errorEvents = append(errorEvents, e)
		}
	})
	require.Error(t, err)

	// Batch 1 succeeds once; batch 2 is retried then aborts the file, so
	// batch 3 never runs.
	assert.Equal(t, 1+fastRetry().MaxAttempts, vectorStore.calls())

	count, err := vectorStore.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 10, count, "only the first batch is persisted")

	require.Len(t, errorEvents, 1)
	assert.Equal(t, 10, errorEvents[0].BatchIndex)
}

func TestProcessChunks_BlankChunksKeepIndices(t *testing.T) {
	vectorStore := newCountingVectorStore(-1)
	graphStore := memory.NewGraphStore(storage.DefaultTraversalPolicy())
	pipeline := newTestPipeline(t, vectorStore, graphStore, mock.NewMockExtractor())

	chunks := []core.Chunk{
		{Text: "first", Index: 0},
		{Text: "   ", Index: 1},
		{Text: "third", Index: 2},
	}
	require.NoError(t, pipeline.ProcessChunks(context.Background(), "test.txt", chunks, nil))

	count, err := vectorStore.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "blank chunks are dropped")
}

func TestProcessChunks_TripletsPersisted(t *testing.T) {
	vectorStore := newCountingVectorStore(-1)
	graphStore := memory.NewGraphStore(storage.DefaultTraversalPolicy())

	extractor := mock.NewMockExtractor()
	extractor.ExtractTripletsFunc = func(ctx context.Context, text string) ([]core.Triplet, error) {
		return []core.Triplet{
			{Subject: "John Doe", Predicate: "has condition", Object: "Diabetes"},
			{Subject: "", Predicate: "broken", Object: "fact"},
		}, nil
	}
	pipeline := newTestPipeline(t, vectorStore, graphStore, extractor)

	chunks := []core.Chunk{{Text: "John Doe has Diabetes.", Index: 0}}
	require.NoError(t, pipeline.ProcessChunks(context.Background(), "test.txt", chunks, nil))

	rels, err := graphStore.CountRelationships(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, rels, "only the valid triplet is stored")
}

func TestProcessChunks_ReingestIsIdempotentOnGraph(t *testing.T) {
	vectorStore := newCountingVectorStore(-1)
	graphStore := memory.NewGraphStore(storage.DefaultTraversalPolicy())

	extractor := mock.NewMockExtractor()
	extractor.ExtractTripletsFunc = func(ctx context.Context, text string) ([]core.Triplet, error) {
		return []core.Triplet{{Subject: "John Doe", Predicate: "takes", Object: "Aspirin"}}, nil
	}
	pipeline := newTestPipeline(t, vectorStore, graphStore, extractor)

	chunks := []core.Chunk{{Text: "John Doe takes Aspirin.", Index: 0}}
	require.NoError(t, pipeline.ProcessChunks(context.Background(), "test.txt", chunks, nil))
	require.NoError(t, pipeline.ProcessChunks(context.Background(), "test.txt", chunks, nil))

	// Vector rows accumulate; the graph MERGE does not.
	count, err := vectorStore.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	nodes, err := graphStore.CountNodes(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, nodes)

	rels, err := graphStore.CountRelationships(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, rels)
}

func TestProcessChunks_ExtractionFailureIsNotFatal(t *testing.T) {
	vectorStore := newCountingVectorStore(-1)
	graphStore := memory.NewGraphStore(storage.DefaultTraversalPolicy())

	extractor := mock.NewMockExtractor()
	extractor.ExtractTripletsFunc = func(ctx context.Context, text string) ([]core.Triplet, error) {
		return nil, errors.New("model unavailable")
	}
	pipeline := newTestPipeline(t, vectorStore, graphStore, extractor)

	err := pipeline.ProcessChunks(context.Background(), "test.txt", makeChunks(3), nil)
	require.NoError(t, err, "triplet failures never fail the batch")

	count, err := vectorStore.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestProcessFile_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha paragraph\n\nbeta paragraph\n"), 0o644))

	vectorStore := newCountingVectorStore(-1)
	graphStore := memory.NewGraphStore(storage.DefaultTraversalPolicy())
	pipeline := newTestPipeline(t, vectorStore, graphStore, mock.NewMockExtractor())

	require.NoError(t, pipeline.ProcessFile(context.Background(), path, nil))

	count, err := vectorStore.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestProcessFile_Validation(t *testing.T) {
	dir := t.TempDir()
	vectorStore := newCountingVectorStore(-1)
	graphStore := memory.NewGraphStore(storage.DefaultTraversalPolicy())
	pipeline := newTestPipeline(t, vectorStore, graphStore, mock.NewMockExtractor(),
		WithFileLimits([]string{".txt"}, 1))

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "binary.exe")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		err := pipeline.ProcessFile(context.Background(), path, nil)
		assert.ErrorIs(t, err, ErrUnsupportedExtension)
	})

	t.Run("oversized file", func(t *testing.T) {
		path := filepath.Join(dir, "big.txt")
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("a", 2<<20)), 0o644))
		err := pipeline.ProcessFile(context.Background(), path, nil)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("document format without parser", func(t *testing.T) {
		parserless := newTestPipeline(t, vectorStore, graphStore, mock.NewMockExtractor(),
			WithFileLimits([]string{".pdf"}, 0))
		path := filepath.Join(dir, "report.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
		err := parserless.ProcessFile(context.Background(), path, nil)
		assert.ErrorIs(t, err, ErrNoParser)
	})
}

func TestProcessFile_SQLHarvesting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT count(*) FROM patients;\n"), 0o644))

	vectorStore := newCountingVectorStore(-1)
	graphStore := memory.NewGraphStore(storage.DefaultTraversalPolicy())
	queryStore := memory.NewQueryStore()

	extractor := mock.NewMockExtractor()
	extractor.ExtractSQLQueriesFunc = func(ctx context.Context, text string) ([]core.SQLQuery, error) {
		return []core.SQLQuery{{
			SQLQuery:  "SELECT count(*) FROM patients",
			QueryType: "SELECT",
			Tables:    []string{"patients"},
		}}, nil
	}
	pipeline := newTestPipeline(t, vectorStore, graphStore, extractor,
		WithQueryStore(queryStore, extractor))

	require.NoError(t, pipeline.ProcessFile(context.Background(), path, nil))

	results, err := queryStore.SearchQueries(context.Background(),
		mock.DeterministicVector("SELECT count(*) FROM patients", 768), storage.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "SELECT", results[0].QueryType)
	assert.Contains(t, results[0].Description, "queries.sql")
}

func TestProcessFiles_IsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	require.NoError(t, os.WriteFile(good, []byte("content"), 0o644))
	missing := filepath.Join(dir, "missing.txt")

	vectorStore := newCountingVectorStore(-1)
	graphStore := memory.NewGraphStore(storage.DefaultTraversalPolicy())
	pipeline := newTestPipeline(t, vectorStore, graphStore, mock.NewMockExtractor())

	err := pipeline.ProcessFiles(context.Background(), []string{missing, good}, nil)
	require.Error(t, err, "the missing file's error is reported")

	count, countErr := vectorStore.Count(context.Background())
	require.NoError(t, countErr)
	assert.EqualValues(t, 1, count, "the good file is still ingested")
}

package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/graphrag/ai"
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

type fixture struct {
	vectorStore *memory.VectorStore
	graphStore  *memory.GraphStore
	embedder    *mock.MockEmbedder
	completer   *mock.MockCompleter
	extractor   *mock.MockExtractor
	searcher    *Searcher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		vectorStore: memory.NewVectorStore(),
		graphStore:  memory.NewGraphStore(storage.DefaultTraversalPolicy()),
		embedder:    mock.NewMockEmbedder(),
		completer:   mock.NewMockCompleter(),
		extractor:   mock.NewMockExtractor(),
	}
	opts = append([]Option{WithRetryPolicy(fastRetry())}, opts...)
	searcher, err := NewSearcher(f.vectorStore, f.graphStore, f.embedder, f.completer, f.extractor, opts...)
	require.NoError(t, err)
	f.searcher = searcher
	return f
}

func (f *fixture) seedVector(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, f.vectorStore.Insert(context.Background(), content, nil,
		mock.DeterministicVector(content, 768)))
}

func TestNewSearcher_Validation(t *testing.T) {
	vectorStore := memory.NewVectorStore()
	graphStore := memory.NewGraphStore(storage.DefaultTraversalPolicy())
	embedder := mock.NewMockEmbedder()
	completer := mock.NewMockCompleter()
	extractor := mock.NewMockExtractor()

	_, err := NewSearcher(nil, graphStore, embedder, completer, extractor)
	assert.ErrorIs(t, err, ErrVectorStoreRequired)
	_, err = NewSearcher(vectorStore, nil, embedder, completer, extractor)
	assert.ErrorIs(t, err, ErrGraphStoreRequired)
	_, err = NewSearcher(vectorStore, graphStore, nil, completer, extractor)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
	_, err = NewSearcher(vectorStore, graphStore, embedder, nil, extractor)
	assert.ErrorIs(t, err, ErrCompleterRequired)
	_, err = NewSearcher(vectorStore, graphStore, embedder, completer, nil)
	assert.ErrorIs(t, err, ErrEntityExtractorRequired)
}

func TestSearch_CombinesVectorAndGraphContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedVector(t, "the patient responded well to treatment")
	require.NoError(t, f.graphStore.MergeTriplet(ctx,
		core.Triplet{Subject: "John Doe", Predicate: "TAKES", Object: "Aspirin"}))

	f.extractor.ExtractEntitiesFunc = func(ctx context.Context, query string) ([]string, error) {
		return []string{"John Doe"}, nil
	}

	var prompt, systemPrompt string
	f.completer.CompleteFunc = func(ctx context.Context, p string, opts ...ai.CompleteOption) (string, error) {
		prompt = p
		systemPrompt = ai.ResolveCompleteOptions(opts...).SystemPrompt
		return "John Doe takes Aspirin.", nil
	}

	result, err := f.searcher.Search(ctx, "What does John Doe take?", 5)
	require.NoError(t, err)

	assert.Equal(t, "John Doe takes Aspirin.", result.Answer)
	assert.Equal(t, 1, result.VectorCount)
	assert.Equal(t, 1, result.GraphCount)
	assert.Equal(t, []string{"John Doe"}, result.Entities)

	assert.Contains(t, prompt, "### Vector Context:")
	assert.Contains(t, prompt, "- the patient responded well to treatment")
	assert.Contains(t, prompt, "### Graph Context:")
	assert.Contains(t, prompt, "- (John Doe:Entity) -[TAKES]-> (Aspirin:Entity)")
	assert.Contains(t, prompt, "User Query: What does John Doe take?")
	assert.Contains(t, systemPrompt, "clinical assistant")
}

func TestSearch_CrossEntityDeduplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Both entities resolve to the same relationship.
	require.NoError(t, f.graphStore.MergeTriplet(ctx,
		core.Triplet{Subject: "John Doe", Predicate: "TAKES", Object: "Aspirin"}))

	f.extractor.ExtractEntitiesFunc = func(ctx context.Context, query string) ([]string, error) {
		return []string{"John Doe", "Aspirin"}, nil
	}

	result, err := f.searcher.Search(ctx, "query", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, result.GraphCount, "the shared fact appears once")
}

func TestSearch_DegradedVectorSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.graphStore.MergeTriplet(ctx,
		core.Triplet{Subject: "John Doe", Predicate: "TAKES", Object: "Aspirin"}))
	f.extractor.ExtractEntitiesFunc = func(ctx context.Context, query string) ([]string, error) {
		return []string{"John Doe"}, nil
	}

	// Closing the vector store makes SearchSimilar fail.
	require.NoError(t, f.vectorStore.Close())

	result, err := f.searcher.Search(ctx, "query", 5)
	require.NoError(t, err, "a failed vector lookup degrades instead of failing")
	assert.Zero(t, result.VectorCount)
	assert.Equal(t, 1, result.GraphCount)
}

func TestSearch_EmbeddingFailureIsFatal(t *testing.T) {
	f := newFixture(t)

	boom := errors.New("provider down")
	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, boom
	}

	_, err := f.searcher.Search(context.Background(), "query", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestSearch_EntityExtractionCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calls := 0
	f.extractor.ExtractEntitiesFunc = func(ctx context.Context, query string) ([]string, error) {
		calls++
		return []string{"John Doe"}, nil
	}

	_, err := f.searcher.Search(ctx, "repeated query", 5)
	require.NoError(t, err)
	_, err = f.searcher.Search(ctx, "repeated query", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "repeat queries hit the entity cache")
}

func TestSearch_EntityExtractionRetried(t *testing.T) {
	f := newFixture(t)

	calls := 0
	f.extractor.ExtractEntitiesFunc = func(ctx context.Context, query string) ([]string, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return []string{"John Doe"}, nil
	}

	result, err := f.searcher.Search(context.Background(), "query", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"John Doe"}, result.Entities)
}

func TestSearch_TopKDefaults(t *testing.T) {
	f := newFixture(t, WithTopK(2))
	ctx := context.Background()

	for _, content := range []string{"a", "b", "c", "d"} {
		f.seedVector(t, strings.Repeat(content, 3))
	}
	f.extractor.ExtractEntitiesFunc = func(ctx context.Context, query string) ([]string, error) {
		return nil, nil
	}

	result, err := f.searcher.Search(ctx, "query", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.VectorCount, "topK below 1 falls back to the configured default")
}

func TestAssembleContext_EmptyResults(t *testing.T) {
	rendered := assembleContext(nil, nil)
	assert.Contains(t, rendered, "### Vector Context:")
	assert.Contains(t, rendered, "### Graph Context:")
}

package graphrag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/graphrag/ai/mock"
	"github.com/poiesic/graphrag/config"
	"github.com/poiesic/graphrag/core"
	"github.com/poiesic/graphrag/storage"
	"github.com/poiesic/graphrag/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSystem(t *testing.T) (*System, *memory.VectorStore, *memory.GraphStore, *memory.QueryStore) {
	t.Helper()

	vectorStore := memory.NewVectorStore()
	graphStore := memory.NewGraphStore(storage.DefaultTraversalPolicy())
	queryStore := memory.NewQueryStore()

	system, err := NewWithStores(config.Load(), mock.NewMockProvider(), vectorStore, graphStore, queryStore)
	require.NoError(t, err)
	t.Cleanup(func() { system.Pipeline.Release() })
	return system, vectorStore, graphStore, queryStore
}

func TestSystem_IngestSearchRoundTrip(t *testing.T) {
	system, _, _, _ := newTestSystem(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "record.txt")
	require.NoError(t, os.WriteFile(path,
		[]byte("John Doe visited the clinic.\n\nDoctor prescribed Aspirin daily."), 0o644))

	require.NoError(t, system.Ingest(ctx, []string{path}, nil))

	result, err := system.Search(ctx, "What was John Doe prescribed?", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Answer)
	assert.Equal(t, 2, result.VectorCount)
}

func TestSystem_ResetAndStats(t *testing.T) {
	system, vectorStore, graphStore, _ := newTestSystem(t)
	ctx := context.Background()

	require.NoError(t, vectorStore.Insert(ctx, "chunk", nil, []float32{1}))
	require.NoError(t, graphStore.MergeTriplet(ctx,
		core.Triplet{Subject: "a", Predicate: "R", Object: "b"}))

	stats, err := system.CollectStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Chunks)
	assert.EqualValues(t, 2, stats.Nodes)
	assert.EqualValues(t, 1, stats.Relationships)

	require.NoError(t, system.Reset(ctx))

	stats, err = system.CollectStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Chunks)
	assert.Zero(t, stats.Nodes)
	assert.Zero(t, stats.Relationships)
}

func TestSystem_Health(t *testing.T) {
	system, vectorStore, _, _ := newTestSystem(t)
	ctx := context.Background()

	health := system.CheckHealth(ctx)
	assert.True(t, health.Postgres)
	assert.True(t, health.Neo4j)

	require.NoError(t, vectorStore.Close())
	health = system.CheckHealth(ctx)
	assert.False(t, health.Postgres)
	assert.True(t, health.Neo4j)
}

func TestSystem_SearchQueries(t *testing.T) {
	system, _, _, queryStore := newTestSystem(t)
	ctx := context.Background()

	_, err := queryStore.InsertQuery(ctx, core.QueryEmbeddingRecord{
		Question:  "count patients",
		SQLQuery:  "SELECT count(*) FROM patients",
		QueryType: "SELECT",
		Tables:    []string{"patients"},
		Embedding: mock.DeterministicVector("count patients", 768),
	})
	require.NoError(t, err)

	results, err := system.SearchQueries(ctx, "count patients", storage.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "SELECT count(*) FROM patients", results[0].SQLQuery)
}

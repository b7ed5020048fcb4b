// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package graphrag wires the system together: an OpenAI-compatible model
// provider behind a PII scrubber, a caching embedding service, pgvector and
// Neo4j stores, the ingestion pipeline, and the hybrid searcher. Everything
// is constructed here and handed down by reference; nothing below this
// package reaches for globals.
package graphrag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/graphrag/ai"
	"github.com/poiesic/graphrag/ai/openai"
	"github.com/poiesic/graphrag/config"
	"github.com/poiesic/graphrag/core"
	"github.com/poiesic/graphrag/embed"
	"github.com/poiesic/graphrag/ingestion"
	"github.com/poiesic/graphrag/scrub"
	"github.com/poiesic/graphrag/search"
	"github.com/poiesic/graphrag/storage"
	"github.com/poiesic/graphrag/storage/neo4j"
	"github.com/poiesic/graphrag/storage/pgvector"
)

// System is the composition root. It owns the provider, the stores, and the
// two operational surfaces: the ingestion pipeline and the hybrid searcher.
type System struct {
	settings *config.Settings
	provider ai.Provider
	embedder *embed.Service
	pool     *pgxpool.Pool

	vectorStore storage.VectorStore
	graphStore  storage.GraphStore
	queryStore  storage.QueryStore

	Pipeline *ingestion.Pipeline
	Searcher *search.Searcher

	logger *slog.Logger
}

// Health reports per-backend reachability.
type Health struct {
	Postgres bool
	Neo4j    bool
}

// Stats summarizes the stored corpus.
type Stats struct {
	Chunks        int64
	Nodes         int64
	Relationships int64
}

// New builds a fully wired system from settings: connections are opened,
// schemas ensured, and the pipeline and searcher constructed.
func New(ctx context.Context, settings *config.Settings) (*System, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "graphrag")
	scrubber := scrub.New()

	aiConfig := ai.NewConfig(
		ai.WithBaseURL(settings.BaseURL),
		ai.WithAPIKey(settings.APIKey),
		ai.WithChatModel(settings.ChatModel),
		ai.WithReasonerModel(settings.ReasonerModel),
		ai.WithEmbeddingModel(settings.EmbeddingModel),
	)
	provider, err := openai.NewProvider(aiConfig, scrubber)
	if err != nil {
		return nil, fmt.Errorf("creating ai provider: %w", err)
	}

	embedder, err := embed.NewService(provider.Embedder(), scrubber, settings.EmbeddingCacheSize)
	if err != nil {
		return nil, err
	}

	pool, err := pgvector.NewPool(ctx, settings.PGConnString())
	if err != nil {
		return nil, err
	}
	if err := pgvector.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	vectorStore := pgvector.NewVectorStore(pool)
	queryStore := pgvector.NewQueryStore(pool)

	graphStore, err := neo4j.NewStore(ctx, neo4j.Config{
		URI:      settings.Neo4jURI,
		User:     settings.Neo4jUser,
		Password: settings.Neo4jPwd,
		Database: settings.Neo4jDatabase,
	}, storage.DefaultTraversalPolicy())
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := graphStore.EnsureSchema(ctx); err != nil {
		pool.Close()
		_ = graphStore.Close()
		return nil, err
	}

	system, err := assemble(settings, provider, embedder, vectorStore, graphStore, queryStore, logger)
	if err != nil {
		pool.Close()
		_ = graphStore.Close()
		return nil, err
	}
	system.pool = pool
	return system, nil
}

// NewWithStores builds a system on caller-provided stores. Used by tests and
// by deployments that bring their own persistence.
func NewWithStores(
	settings *config.Settings,
	provider ai.Provider,
	vectorStore storage.VectorStore,
	graphStore storage.GraphStore,
	queryStore storage.QueryStore,
) (*System, error) {
	scrubber := scrub.New()
	embedder, err := embed.NewService(provider.Embedder(), scrubber, settings.EmbeddingCacheSize)
	if err != nil {
		return nil, err
	}
	return assemble(settings, provider, embedder, vectorStore, graphStore, queryStore,
		slog.Default().With("component", "graphrag"))
}

func assemble(
	settings *config.Settings,
	provider ai.Provider,
	embedder *embed.Service,
	vectorStore storage.VectorStore,
	graphStore storage.GraphStore,
	queryStore storage.QueryStore,
	logger *slog.Logger,
) (*System, error) {
	pipeline, err := ingestion.NewPipeline(vectorStore, graphStore, embedder, provider.TripletExtractor(),
		ingestion.WithBatchSize(settings.EmbeddingBatchSize),
		ingestion.WithPoolSize(settings.TripletPoolSize),
		ingestion.WithQueryStore(queryStore, provider.SQLExtractor()),
		ingestion.WithFileLimits(settings.AllowedExtensions, settings.MaxUploadSizeMB),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline: %w", err)
	}

	searcher, err := search.NewSearcher(vectorStore, graphStore, embedder, provider.Completer(), provider.EntityExtractor(),
		search.WithTopK(settings.VectorTopK),
		search.WithEntityCacheSize(settings.EntityCacheSize),
	)
	if err != nil {
		pipeline.Release()
		return nil, fmt.Errorf("creating searcher: %w", err)
	}

	return &System{
		settings:    settings,
		provider:    provider,
		embedder:    embedder,
		vectorStore: vectorStore,
		graphStore:  graphStore,
		queryStore:  queryStore,
		Pipeline:    pipeline,
		Searcher:    searcher,
		logger:      logger,
	}, nil
}

// Ingest processes the given files through the pipeline.
func (s *System) Ingest(ctx context.Context, paths []string, progress ingestion.ProgressFunc) error {
	return s.Pipeline.ProcessFiles(ctx, paths, progress)
}

// Search answers a question using hybrid retrieval.
func (s *System) Search(ctx context.Context, query string, topK int) (search.Result, error) {
	return s.Searcher.Search(ctx, query, topK)
}

// SearchQueries finds stored SQL queries semantically similar to question.
func (s *System) SearchQueries(ctx context.Context, question string, filter storage.QueryFilter) ([]core.QueryEmbeddingRecord, error) {
	embedding, err := s.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	return s.queryStore.SearchQueries(ctx, embedding, filter)
}

// ExportGraph returns up to limit relationships for visualization.
func (s *System) ExportGraph(ctx context.Context, limit int) ([]core.GraphNode, []core.GraphEdge, error) {
	return s.graphStore.Export(ctx, limit)
}

// Reset wipes both the vector corpus and the graph.
func (s *System) Reset(ctx context.Context) error {
	if err := s.vectorStore.Truncate(ctx); err != nil {
		return fmt.Errorf("truncating chunks: %w", err)
	}
	if err := s.graphStore.Wipe(ctx); err != nil {
		return fmt.Errorf("wiping graph: %w", err)
	}
	s.embedder.PurgeCache()
	s.logger.Info("databases reset")
	return nil
}

// CheckHealth pings both backends.
func (s *System) CheckHealth(ctx context.Context) Health {
	health := Health{}
	if err := s.vectorStore.Ping(ctx); err != nil {
		s.logger.Warn("postgres health check failed", "err", err)
	} else {
		health.Postgres = true
	}
	if err := s.graphStore.Ping(ctx); err != nil {
		s.logger.Warn("neo4j health check failed", "err", err)
	} else {
		health.Neo4j = true
	}
	return health
}

// CollectStats counts the stored chunks, nodes, and relationships.
func (s *System) CollectStats(ctx context.Context) (Stats, error) {
	chunks, err := s.vectorStore.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("counting chunks: %w", err)
	}
	nodes, err := s.graphStore.CountNodes(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("counting nodes: %w", err)
	}
	relationships, err := s.graphStore.CountRelationships(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("counting relationships: %w", err)
	}
	return Stats{Chunks: chunks, Nodes: nodes, Relationships: relationships}, nil
}

// Close releases the pipeline, the stores, and the provider.
func (s *System) Close() error {
	s.Pipeline.Release()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	record(s.vectorStore.Close())
	record(s.queryStore.Close())
	record(s.graphStore.Close())
	if s.pool != nil {
		s.pool.Close()
	}
	record(s.provider.Close())
	return firstErr
}

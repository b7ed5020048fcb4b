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


package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/graphrag/ai"
	"github.com/poiesic/graphrag/retry"
	"github.com/poiesic/graphrag/storage"
	"golang.org/x/sync/errgroup"
)

// DefaultTopK is the number of vector matches retrieved when the caller
// does not specify one.
const DefaultTopK = 5

// DefaultEntityCacheSize bounds the entity extraction cache.
const DefaultEntityCacheSize = 1000

const answerSystemPrompt = `You are a helpful clinical assistant.
Use the provided context to answer the user query accurately.
If the context is insufficient, state that clearly.
Maintain patient privacy and professional tone.`

// Result is the outcome of a hybrid search.
type Result struct {
	Answer      string
	VectorCount int
	GraphCount  int
	Entities    []string
}

// Searcher answers questions by combining vector similarity search with
// graph traversal and synthesizing an answer from the merged context.
type Searcher struct {
	vectorStore storage.VectorStore
	graphStore  storage.GraphStore
	embedder    ai.Embedder
	completer   ai.Completer
	entities    ai.EntityExtractor
	entityCache *lru.Cache[string, []string]
	retryPolicy retry.Policy
	topK        int
	logger      *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithTopK sets the default number of vector matches.
func WithTopK(topK int) Option {
	return func(s *Searcher) error {
		if topK > 0 {
			s.topK = topK
		}
		return nil
	}
}

// WithEntityCacheSize bounds the entity extraction cache.
// Default is DefaultEntityCacheSize.
func WithEntityCacheSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			size = DefaultEntityCacheSize
		}
		cache, err := lru.New[string, []string](size)
		if err != nil {
			return err
		}
		s.entityCache = cache
		return nil
	}
}

// WithRetryPolicy sets the backoff policy for the load-bearing calls:
// query embedding, entity extraction, and answer generation.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(s *Searcher) error {
		s.retryPolicy = policy
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a hybrid searcher over the given stores and services.
func NewSearcher(
	vectorStore storage.VectorStore,
	graphStore storage.GraphStore,
	embedder ai.Embedder,
	completer ai.Completer,
	entities ai.EntityExtractor,
	opts ...Option,
) (*Searcher, error) {
	if vectorStore == nil {
		return nil, ErrVectorStoreRequired
	}
	if graphStore == nil {
		return nil, ErrGraphStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if entities == nil {
		return nil, ErrEntityExtractorRequired
	}

	cache, err := lru.New[string, []string](DefaultEntityCacheSize)
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		vectorStore: vectorStore,
		graphStore:  graphStore,
		embedder:    embedder,
		completer:   completer,
		entities:    entities,
		entityCache: cache,
		retryPolicy: retry.DefaultPolicy(),
		topK:        DefaultTopK,
		logger:      slog.Default().With("component", "search"),
	}
	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			return nil, optErr
		}
	}
	return s, nil
}

// Search runs the hybrid retrieval flow for query. topK bounds the vector
// matches; values below 1 use the configured default.
//
// Query embedding and entity extraction run concurrently and are load
// bearing. The vector and graph lookups also run concurrently but degrade
// gracefully: a failed lookup contributes an empty context block instead of
// failing the search.
func (s *Searcher) Search(ctx context.Context, query string, topK int) (Result, error) {
	if topK < 1 {
		topK = s.topK
	}

	var queryEmbedding []float32
	var entities []string

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := s.retryPolicy.Do(groupCtx, func() error {
			var embedErr error
			queryEmbedding, embedErr = s.embedder.EmbedText(groupCtx, query)
			return embedErr
		})
		if err != nil {
			return fmt.Errorf("embedding query: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		entities, err = s.extractEntities(groupCtx, query)
		if err != nil {
			return fmt.Errorf("extracting entities: %w", err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return Result{}, err
	}

	var vectorResults []string
	var graphResults []string

	lookups, lookupCtx := errgroup.WithContext(ctx)
	lookups.Go(func() error {
		results, err := s.vectorStore.SearchSimilar(lookupCtx, queryEmbedding, topK)
		if err != nil {
			s.logger.Warn("vector search failed", "err", err)
			return nil
		}
		vectorResults = results
		return nil
	})
	lookups.Go(func() error {
		graphResults = s.graphSearch(lookupCtx, entities)
		return nil
	})
	_ = lookups.Wait()

	promptContext := assembleContext(vectorResults, graphResults)

	var answer string
	err := s.retryPolicy.Do(ctx, func() error {
		var completeErr error
		answer, completeErr = s.completer.Complete(ctx,
			fmt.Sprintf("Context:\n%s\n\nUser Query: %s", promptContext, query),
			ai.WithSystemPrompt(answerSystemPrompt))
		return completeErr
	})
	if err != nil {
		return Result{}, fmt.Errorf("generating answer: %w", err)
	}

	s.logger.Info("hybrid search complete",
		"vector_count", len(vectorResults),
		"graph_count", len(graphResults),
		"entities", len(entities))

	return Result{
		Answer:      answer,
		VectorCount: len(vectorResults),
		GraphCount:  len(graphResults),
		Entities:    entities,
	}, nil
}

// extractEntities extracts the query's salient entities, caching results
// per query string.
func (s *Searcher) extractEntities(ctx context.Context, query string) ([]string, error) {
	if cached, ok := s.entityCache.Get(query); ok {
		s.logger.Debug("entity cache hit", "query", query)
		return cached, nil
	}

	var entities []string
	err := s.retryPolicy.Do(ctx, func() error {
		var extractErr error
		entities, extractErr = s.entities.ExtractEntities(ctx, query)
		return extractErr
	})
	if err != nil {
		return nil, err
	}

	s.entityCache.Add(query, entities)
	return entities, nil
}

// graphSearch collects neighborhood facts for each entity, deduplicated
// across entities. Per-entity failures are logged and skipped.
func (s *Searcher) graphSearch(ctx context.Context, entities []string) []string {
	seen := make(map[string]bool)
	results := make([]string, 0)
	for _, entity := range entities {
		facts, err := s.graphStore.Neighborhood(ctx, entity)
		if err != nil {
			s.logger.Error("graph search failed", "entity", entity, "err", err)
			continue
		}
		for _, fact := range facts {
			rendered := fact.String()
			if seen[rendered] {
				continue
			}
			seen[rendered] = true
			results = append(results, rendered)
		}
	}
	s.logger.Debug("graph search", "entities", len(entities), "facts", len(results))
	return results
}

func assembleContext(vectorResults, graphResults []string) string {
	var b strings.Builder
	b.WriteString("### Vector Context:\n")
	for _, result := range vectorResults {
		b.WriteString("- ")
		b.WriteString(result)
		b.WriteString("\n")
	}
	b.WriteString("\n### Graph Context:\n")
	for _, result := range graphResults {
		b.WriteString("- ")
		b.WriteString(result)
		b.WriteString("\n")
	}
	return b.String()
}

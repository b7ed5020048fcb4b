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


package embed

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/graphrag/ai"
	"github.com/poiesic/graphrag/core"
	"github.com/poiesic/graphrag/scrub"
)

// DefaultCacheSize bounds the embedding cache when no size is configured.
const DefaultCacheSize = 1000

// Service wraps an ai.Embedder with PII scrubbing, L2 normalization, and a
// bounded LRU cache keyed by content hash of the original text. Repeat
// embeddings of identical text never reach the provider.
//
// The cache key is computed from the text as given, before scrubbing. Two
// texts that differ only in PII occupy separate cache entries even though
// they produce the same provider request.
type Service struct {
	embedder ai.Embedder
	scrubber *scrub.Scrubber
	cache    *lru.Cache[core.ID, []float32]
	logger   *slog.Logger
}

var _ ai.Embedder = (*Service)(nil)

// NewService creates a caching embedding service in front of embedder.
// cacheSize bounds the number of cached vectors; values below 1 fall back
// to DefaultCacheSize.
func NewService(embedder ai.Embedder, scrubber *scrub.Scrubber, cacheSize int) (*Service, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}
	if cacheSize < 1 {
		cacheSize = DefaultCacheSize
	}

	cache, err := lru.New[core.ID, []float32](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}

	return &Service{
		embedder: embedder,
		scrubber: scrubber,
		cache:    cache,
		logger:   slog.Default().With("component", "embed-service"),
	}, nil
}

// EmbedText embeds a single text, serving from cache when possible.
func (s *Service) EmbedText(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedTexts embeds a batch of texts, returning unit vectors in input order.
// Cached texts are served locally; the remainder go to the provider in a
// single batched call. When every text is cached no provider call is made.
// A provider failure fails the whole batch, cache hits included.
func (s *Service) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	keys := make([]core.ID, len(texts))

	var missIndices []int
	for i, text := range texts {
		keys[i] = core.IDFromContent(text)
		if vec, ok := s.cache.Get(keys[i]); ok {
			results[i] = vec
			continue
		}
		missIndices = append(missIndices, i)
	}

	if len(missIndices) == 0 {
		s.logger.Debug("embedding batch fully cached", "count", len(texts))
		return results, nil
	}

	missTexts := make([]string, len(missIndices))
	for j, i := range missIndices {
		missTexts[j] = s.scrubText(texts[i])
	}

	embeddings, err := s.embedder.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbedding, err)
	}
	if len(embeddings) != len(missTexts) {
		return nil, fmt.Errorf("%w: provider returned %d embeddings for %d texts",
			ai.ErrEmbedding, len(embeddings), len(missTexts))
	}

	for j, i := range missIndices {
		vec := core.NormalizeVector(embeddings[j])
		s.cache.Add(keys[i], vec)
		results[i] = vec
	}

	s.logger.Debug("embedded batch",
		"count", len(texts),
		"cached", len(texts)-len(missIndices),
		"embedded", len(missIndices))
	return results, nil
}

// CacheLen returns the number of vectors currently cached.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

// PurgeCache empties the embedding cache.
func (s *Service) PurgeCache() {
	s.cache.Purge()
}

func (s *Service) scrubText(text string) string {
	if s.scrubber == nil {
		return text
	}
	return s.scrubber.Scrub(text)
}

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


package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/poiesic/graphrag/core"
	"github.com/poiesic/graphrag/storage"
)

// VectorStore is an in-memory storage.VectorStore. Search is a linear scan
// over cosine distance, which is fine at test and demo scale.
type VectorStore struct {
	mu      sync.RWMutex
	records []core.VectorRecord
	nextID  int64
	closed  bool
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{nextID: 1}
}

// Insert stores a single chunk.
func (s *VectorStore) Insert(ctx context.Context, content string, metadata map[string]any, embedding []float32) error {
	return s.InsertBatch(ctx, []core.VectorRecord{{
		Content:   content,
		Metadata:  metadata,
		Embedding: embedding,
	}})
}

// InsertBatch stores records atomically.
func (s *VectorStore) InsertBatch(ctx context.Context, records []core.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	for _, record := range records {
		record.Id = s.nextID
		s.nextID++
		s.records = append(s.records, record)
	}
	return nil
}

// SearchSimilar returns the topK nearest chunk contents, closest first.
func (s *VectorStore) SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]string, error) {
	if topK < 1 {
		return nil, storage.ErrInvalidTopK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrClosed
	}

	type scored struct {
		content  string
		distance float32
	}
	ranked := make([]scored, 0, len(s.records))
	for _, record := range s.records {
		ranked = append(ranked, scored{
			content:  record.Content,
			distance: core.CosineDistance(embedding, record.Embedding),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].distance < ranked[j].distance
	})

	if topK > len(ranked) {
		topK = len(ranked)
	}
	contents := make([]string, topK)
	for i := 0; i < topK; i++ {
		contents[i] = ranked[i].content
	}
	return contents, nil
}

// Count returns the number of stored chunks.
func (s *VectorStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	return int64(len(s.records)), nil
}

// Truncate removes all stored chunks.
func (s *VectorStore) Truncate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.records = nil
	return nil
}

// Ping reports whether the store is open.
func (s *VectorStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storage.ErrClosed
	}
	return nil
}

// Close marks the store closed.
func (s *VectorStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
